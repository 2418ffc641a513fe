// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package careparse

// Status and sentinel values used throughout daily records. These come from
// the source documents themselves, so they stay in Korean.
const (
	StatusDone    = "완료"
	StatusNotDone = "미실시"

	TransportProvided    = "제공"
	TransportNotProvided = "미제공"

	BathNone = "없음"
)

// Category identifies one of the four care areas a note or writer row
// belongs to.
type Category string

const (
	CategoryPhysical   Category = "phy"
	CategoryCognitive  Category = "cog"
	CategoryNursing    Category = "nur"
	CategoryFunctional Category = "func"
)

// DailyRecord is one parsed row per (care recipient, calendar date).
// String fields default to "-" or the not-done sentinel rather than empty so
// downstream consumers never need nil checks; StartTime/EndTime and the
// writer fields may legitimately be empty (stored as NULL).
type DailyRecord struct {
	Date string `json:"date"`

	CustomerName          string `json:"customer_name"`
	CustomerBirthDate     string `json:"customer_birth_date"`
	CustomerGrade         string `json:"customer_grade"`
	CustomerRecognitionNo string `json:"customer_recognition_no"`
	FacilityName          string `json:"facility_name"`
	FacilityCode          string `json:"facility_code"`

	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	TotalServiceTime  string `json:"total_service_time"`
	TransportService  string `json:"transport_service"`
	TransportVehicles string `json:"transport_vehicles"`

	HygieneCare   string `json:"hygiene_care"`
	BathTime      string `json:"bath_time"`
	BathMethod    string `json:"bath_method"`
	MealBreakfast string `json:"meal_breakfast"`
	MealLunch     string `json:"meal_lunch"`
	MealDinner    string `json:"meal_dinner"`
	ToiletCare    string `json:"toilet_care"`
	MobilityCare  string `json:"mobility_care"`
	PhysicalNote  string `json:"physical_note"`
	WriterPhy     string `json:"writer_phy"`

	CogSupport    string `json:"cog_support"`
	CommSupport   string `json:"comm_support"`
	CognitiveNote string `json:"cognitive_note"`
	WriterCog     string `json:"writer_cog"`

	BPTemp        string `json:"bp_temp"`
	HealthManage  string `json:"health_manage"`
	NursingManage string `json:"nursing_manage"`
	Emergency     string `json:"emergency"`
	NursingNote   string `json:"nursing_note"`
	WriterNur     string `json:"writer_nur"`

	ProgBasic         string `json:"prog_basic"`
	ProgActivity      string `json:"prog_activity"`
	ProgCognitive     string `json:"prog_cognitive"`
	ProgTherapy       string `json:"prog_therapy"`
	ProgEnhanceDetail string `json:"prog_enhance_detail"`
	FunctionalNote    string `json:"functional_note"`
	WriterFunc        string `json:"writer_func"`
}

// newDailyRecord builds a record pre-filled with page-level defaults. Fields
// that a later cell read may overwrite start at their documented defaults.
func newDailyRecord(date string, personal personalInfo, basic basicInfo) DailyRecord {
	rec := DailyRecord{
		Date: date,

		CustomerName:          personal.CustomerName,
		CustomerBirthDate:     personal.BirthDate,
		CustomerGrade:         personal.CareGrade,
		CustomerRecognitionNo: personal.RecognitionNo,
		FacilityName:          personal.FacilityName,
		FacilityCode:          personal.FacilityCode,

		StartTime:         basic.StartTime,
		EndTime:           basic.EndTime,
		TotalServiceTime:  basic.TotalServiceTime,
		TransportService:  basic.TransportService,
		TransportVehicles: basic.TransportVehicles,

		HygieneCare:   StatusNotDone,
		BathTime:      "-",
		BathMethod:    "-",
		MealBreakfast: "-",
		MealLunch:     "-",
		MealDinner:    "-",
		ToiletCare:    "-",
		MobilityCare:  StatusNotDone,

		CogSupport:  StatusNotDone,
		CommSupport: StatusNotDone,

		BPTemp:        "-",
		HealthManage:  StatusNotDone,
		NursingManage: StatusNotDone,
		Emergency:     StatusNotDone,

		ProgBasic:     StatusNotDone,
		ProgActivity:  StatusNotDone,
		ProgCognitive: StatusNotDone,
		ProgTherapy:   StatusNotDone,
	}
	if rec.TransportService == "" {
		rec.TransportService = TransportNotProvided
	}
	return rec
}
