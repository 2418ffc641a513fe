// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"

	"github.com/carelog/internal/careparse"
)

// RecordDetail is one daily record joined with all four care-detail tables.
type RecordDetail struct {
	RecordID   int64  `json:"record_id"`
	CustomerID int64  `json:"customer_id"`
	Date       string `json:"date"`

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

// RecordStore persists parsed daily records as a parent row plus four
// care-detail child rows.
type RecordStore struct {
	db        *sql.DB
	customers *CustomerStore
}

// NewRecordStore creates a record store and its schema.
func NewRecordStore(db *sql.DB, customers *CustomerStore) (*RecordStore, error) {
	s := &RecordStore{db: db, customers: customers}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize records schema: %w", err)
	}
	return s, nil
}

func (s *RecordStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS daily_infos (
		record_id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		total_service_time TEXT,
		transport_service TEXT,
		transport_vehicles TEXT,
		UNIQUE(customer_id, date)
	);

	CREATE TABLE IF NOT EXISTS daily_physicals (
		record_id INTEGER NOT NULL,
		hygiene_care TEXT,
		bath_time TEXT,
		bath_method TEXT,
		meal_breakfast TEXT,
		meal_lunch TEXT,
		meal_dinner TEXT,
		toilet_care TEXT,
		mobility_care TEXT,
		note TEXT,
		writer_name TEXT
	);

	CREATE TABLE IF NOT EXISTS daily_cognitives (
		record_id INTEGER NOT NULL,
		cog_support TEXT,
		comm_support TEXT,
		note TEXT,
		writer_name TEXT
	);

	CREATE TABLE IF NOT EXISTS daily_nursings (
		record_id INTEGER NOT NULL,
		bp_temp TEXT,
		health_manage TEXT,
		nursing_manage TEXT,
		emergency TEXT,
		note TEXT,
		writer_name TEXT
	);

	CREATE TABLE IF NOT EXISTS daily_recoveries (
		record_id INTEGER NOT NULL,
		prog_basic TEXT,
		prog_activity TEXT,
		prog_cognitive TEXT,
		prog_therapy TEXT,
		prog_enhance_detail TEXT,
		note TEXT,
		writer_name TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_daily_infos_customer_date ON daily_infos(customer_id, date);
	CREATE INDEX IF NOT EXISTS idx_daily_physicals_record ON daily_physicals(record_id);
	CREATE INDEX IF NOT EXISTS idx_daily_cognitives_record ON daily_cognitives(record_id);
	CREATE INDEX IF NOT EXISTS idx_daily_nursings_record ON daily_nursings(record_id);
	CREATE INDEX IF NOT EXISTS idx_daily_recoveries_record ON daily_recoveries(record_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveParsedData upserts a batch of parsed records in one transaction and
// returns the number of records written. An existing (customer, date)
// record is deleted and recreated with its children so stale detail rows
// cannot survive a re-upload.
func (s *RecordStore) SaveParsedData(records []careparse.DailyRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	saved := 0
	for _, rec := range records {
		// Resolution must share the batch transaction; a second connection
		// would block behind the write lock this transaction holds.
		customerID, err := s.customers.ResolveTx(tx,
			rec.CustomerName, rec.CustomerBirthDate, rec.CustomerGrade, rec.CustomerRecognitionNo)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve customer %q: %w", rec.CustomerName, err)
		}

		if err := deleteDailyRecordTx(tx, customerID, rec.Date); err != nil {
			return 0, err
		}
		if err := insertDailyRecordTx(tx, customerID, rec); err != nil {
			return 0, fmt.Errorf("failed to save record for %q on %s: %w", rec.CustomerName, rec.Date, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

// deleteDailyRecordTx removes an existing (customer, date) record and its
// child rows, children first.
func deleteDailyRecordTx(tx *sql.Tx, customerID int64, date string) error {
	var recordID int64
	err := tx.QueryRow(
		"SELECT record_id FROM daily_infos WHERE customer_id = ? AND date = ?",
		customerID, date).Scan(&recordID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	for _, table := range []string{"daily_physicals", "daily_cognitives", "daily_nursings", "daily_recoveries", "daily_infos"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE record_id = ?", recordID); err != nil {
			return err
		}
	}
	return nil
}

func insertDailyRecordTx(tx *sql.Tx, customerID int64, rec careparse.DailyRecord) error {
	res, err := tx.Exec(`
		INSERT INTO daily_infos (customer_id, date, start_time, end_time, total_service_time, transport_service, transport_vehicles)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		customerID, rec.Date,
		nullIfEmpty(rec.StartTime), nullIfEmpty(rec.EndTime),
		nullIfEmpty(rec.TotalServiceTime), rec.TransportService, nullIfEmpty(rec.TransportVehicles),
	)
	if err != nil {
		return err
	}
	recordID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO daily_physicals (record_id, hygiene_care, bath_time, bath_method, meal_breakfast, meal_lunch, meal_dinner, toilet_care, mobility_care, note, writer_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordID, rec.HygieneCare, rec.BathTime, rec.BathMethod,
		rec.MealBreakfast, rec.MealLunch, rec.MealDinner,
		rec.ToiletCare, rec.MobilityCare, rec.PhysicalNote, nullIfEmpty(rec.WriterPhy),
	); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO daily_cognitives (record_id, cog_support, comm_support, note, writer_name)
		VALUES (?, ?, ?, ?, ?)`,
		recordID, rec.CogSupport, rec.CommSupport, rec.CognitiveNote, nullIfEmpty(rec.WriterCog),
	); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO daily_nursings (record_id, bp_temp, health_manage, nursing_manage, emergency, note, writer_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recordID, rec.BPTemp, rec.HealthManage, rec.NursingManage, rec.Emergency, rec.NursingNote, nullIfEmpty(rec.WriterNur),
	); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO daily_recoveries (record_id, prog_basic, prog_activity, prog_cognitive, prog_therapy, prog_enhance_detail, note, writer_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recordID, rec.ProgBasic, rec.ProgActivity, rec.ProgCognitive, rec.ProgTherapy,
		rec.ProgEnhanceDetail, rec.FunctionalNote, nullIfEmpty(rec.WriterFunc),
	)
	return err
}

const recordDetailQuery = `
	SELECT
		di.record_id, di.customer_id, di.date,
		di.start_time, di.end_time, di.total_service_time, di.transport_service, di.transport_vehicles,
		dp.hygiene_care, dp.bath_time, dp.bath_method,
		dp.meal_breakfast, dp.meal_lunch, dp.meal_dinner,
		dp.toilet_care, dp.mobility_care, dp.note, dp.writer_name,
		dc.cog_support, dc.comm_support, dc.note, dc.writer_name,
		dn.bp_temp, dn.health_manage, dn.nursing_manage, dn.emergency, dn.note, dn.writer_name,
		dr.prog_basic, dr.prog_activity, dr.prog_cognitive, dr.prog_therapy, dr.prog_enhance_detail, dr.note, dr.writer_name
	FROM daily_infos di
	LEFT JOIN daily_physicals dp ON dp.record_id = di.record_id
	LEFT JOIN daily_cognitives dc ON dc.record_id = di.record_id
	LEFT JOIN daily_nursings dn ON dn.record_id = di.record_id
	LEFT JOIN daily_recoveries dr ON dr.record_id = di.record_id
`

func scanRecordDetails(rows *sql.Rows) ([]RecordDetail, error) {
	var details []RecordDetail
	for rows.Next() {
		var d RecordDetail
		fields := make([]sql.NullString, 32)
		dest := []any{&d.RecordID, &d.CustomerID, &d.Date}
		for i := range fields {
			dest = append(dest, &fields[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		targets := []*string{
			&d.StartTime, &d.EndTime, &d.TotalServiceTime, &d.TransportService, &d.TransportVehicles,
			&d.HygieneCare, &d.BathTime, &d.BathMethod,
			&d.MealBreakfast, &d.MealLunch, &d.MealDinner,
			&d.ToiletCare, &d.MobilityCare, &d.PhysicalNote, &d.WriterPhy,
			&d.CogSupport, &d.CommSupport, &d.CognitiveNote, &d.WriterCog,
			&d.BPTemp, &d.HealthManage, &d.NursingManage, &d.Emergency, &d.NursingNote, &d.WriterNur,
			&d.ProgBasic, &d.ProgActivity, &d.ProgCognitive, &d.ProgTherapy, &d.ProgEnhanceDetail, &d.FunctionalNote, &d.WriterFunc,
		}
		for i, t := range targets {
			*t = fields[i].String
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// GetCustomerRecords returns a customer's records, newest first, optionally
// limited to an inclusive date range.
func (s *RecordStore) GetCustomerRecords(customerID int64, startDate, endDate string) ([]RecordDetail, error) {
	query := recordDetailQuery + " WHERE di.customer_id = ?"
	args := []any{customerID}
	if startDate != "" && endDate != "" {
		query += " AND di.date BETWEEN ? AND ?"
		args = append(args, startDate, endDate)
	}
	query += " ORDER BY di.date DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordDetails(rows)
}

// GetByDateRange returns every record in an inclusive date range across all
// customers, ordered by date then customer.
func (s *RecordStore) GetByDateRange(startDate, endDate string) ([]RecordDetail, error) {
	rows, err := s.db.Query(
		recordDetailQuery+" WHERE di.date BETWEEN ? AND ? ORDER BY di.date, di.customer_id",
		startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordDetails(rows)
}

// GetRecord returns one record with all its category details, or nil when
// the ID is unknown.
func (s *RecordStore) GetRecord(recordID int64) (*RecordDetail, error) {
	rows, err := s.db.Query(recordDetailQuery+" WHERE di.record_id = ?", recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details, err := scanRecordDetails(rows)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, nil
	}
	return &details[0], nil
}

// FindRecordID returns the record ID for a (customer, date) pair, or 0 when
// none exists.
func (s *RecordStore) FindRecordID(customerID int64, date string) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		"SELECT record_id FROM daily_infos WHERE customer_id = ? AND date = ? LIMIT 1",
		customerID, date).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// CustomersWithRecords returns the customers that have at least one record,
// optionally within a date range.
func (s *RecordStore) CustomersWithRecords(startDate, endDate string) ([]Customer, error) {
	query := `
		SELECT DISTINCT c.customer_id, c.name, c.birth_date, c.gender, c.recognition_no, c.benefit_start_date, c.grade
		FROM customers c
		JOIN daily_infos di ON di.customer_id = c.customer_id`
	args := []any{}
	if startDate != "" && endDate != "" {
		query += " WHERE di.date BETWEEN ? AND ?"
		args = append(args, startDate, endDate)
	}
	query += " ORDER BY c.name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		var birth, gender, recog, benefit, grade sql.NullString
		if err := rows.Scan(&c.CustomerID, &c.Name, &birth, &gender, &recog, &benefit, &grade); err != nil {
			return nil, err
		}
		c.BirthDate = birth.String
		c.Gender = gender.String
		c.RecognitionNo = recog.String
		c.BenefitStartDate = benefit.String
		c.Grade = grade.String
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
