// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package careparse

import (
	"regexp"
	"strings"

	"github.com/carelog/internal/pdf"
)

// personalInfo holds the recipient identity fields read from the first page
// of a group. Any field a regex fails to capture stays empty.
type personalInfo struct {
	CustomerName  string
	BirthDate     string
	CareGrade     string
	RecognitionNo string
	FacilityName  string
	FacilityCode  string
}

// basicInfo holds the visit-level defaults read from the free-text header
// that precedes the record table.
type basicInfo struct {
	TotalServiceTime  string
	StartTime         string
	EndTime           string
	TransportService  string
	TransportVehicles string
}

// basicInfoAnchor marks the start of the tabular section; only text before
// it belongs to the free-text header.
const basicInfoAnchor = "신체활동지원"

var (
	collapseWS = regexp.MustCompile(`\s+`)

	nameRe         = regexp.MustCompile(`수급자명\s+(\S+)`)
	birthRe        = regexp.MustCompile(`생년월일\s+(\d{4}\.\d{2}\.\d{2})`)
	gradeRe        = regexp.MustCompile(`장기요양등급\s+(\S+)`)
	recognitionRe  = regexp.MustCompile(`장기요양인정번호\s+([A-Z0-9]+)`)
	facilityRe     = regexp.MustCompile(`장기요양기관명\s+(.+?)\s+장기요양기관기호`)
	facilityCodeRe = regexp.MustCompile(`장기요양기관기호\s+([0-9A-Za-z]+)`)

	totalTimeRe     = regexp.MustCompile(`총\s*시간[:\s]*([0-9]{1,4}\s*분|미이용|결석)`)
	timeRangeRe     = regexp.MustCompile(`시작\s*시간\s*~\s*종료\s*시간[:\s]*([0-9]{1,2}:[0-9]{2})\s*[~\-]\s*([0-9]{1,2}:[0-9]{2})`)
	timeSplitRe     = regexp.MustCompile(`(?s)시작\s*시간[:\s]*([0-9]{1,2}:[0-9]{2}).*?종료\s*시간[:\s]*([0-9]{1,2}:[0-9]{2})`)
	transportLineRe = regexp.MustCompile(`이동\s*서비스\s*제공\s*여부[^\n]*?(?:[:：]\s*|)([^\n]*)`)
	vehicleLineRe   = regexp.MustCompile(`\(차량번호\)\s*([^\n]+)`)
)

func capture(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parsePersonalInfo extracts recipient identity fields from the first page
// of a group. A failed capture is simply an empty field, never an error.
func parsePersonalInfo(pages []pdf.Page) personalInfo {
	if len(pages) == 0 {
		return personalInfo{}
	}
	text := collapseWS.ReplaceAllString(pages[0].Text, " ")

	info := personalInfo{
		CustomerName:  capture(nameRe, text),
		CareGrade:     capture(gradeRe, text),
		RecognitionNo: capture(recognitionRe, text),
		FacilityName:  capture(facilityRe, text),
		FacilityCode:  capture(facilityCodeRe, text),
	}
	if birth := capture(birthRe, text); birth != "" {
		info.BirthDate = strings.ReplaceAll(birth, ".", "-")
	}
	return info
}

// parseBasicInfoBlock extracts visit-level defaults from the free-text
// preamble of a group. Page texts are concatenated until the tabular-section
// anchor appears; the anchor itself belongs to the table, not the header.
func parseBasicInfoBlock(pages []pdf.Page) basicInfo {
	var block strings.Builder
	for _, page := range pages {
		text := page.Text
		if text == "" {
			continue
		}
		if strings.Contains(text, basicInfoAnchor) {
			block.WriteString(strings.SplitN(text, basicInfoAnchor, 2)[0])
			break
		}
		block.WriteString(text)
		block.WriteString("\n")
	}

	text := block.String()
	if text == "" {
		return basicInfo{}
	}

	var info basicInfo

	if m := totalTimeRe.FindStringSubmatch(text); m != nil {
		info.TotalServiceTime = strings.ReplaceAll(m[1], " ", "")
	}

	timeMatch := timeRangeRe.FindStringSubmatch(text)
	if timeMatch == nil {
		timeMatch = timeSplitRe.FindStringSubmatch(text)
	}
	if timeMatch != nil {
		info.StartTime = timeMatch[1]
		info.EndTime = timeMatch[2]
	}

	rawTransport := ""
	if m := transportLineRe.FindStringSubmatch(text); m != nil {
		rawTransport = strings.TrimSpace(m[1])
	}

	var plates []string
	if m := vehicleLineRe.FindStringSubmatch(text); m != nil {
		cleaned := nonPlateRe.ReplaceAllString(m[1], " ")
		plates = plateRe.FindAllString(cleaned, -1)
	}
	if len(plates) > 0 {
		info.TransportVehicles = joinUniquePlates(plates)
	}

	if rawTransport != "" || len(plates) > 0 {
		if strings.Contains(rawTransport, "■") {
			info.TransportService = TransportProvided
		} else {
			info.TransportService = TransportNotProvided
		}
	}

	return info
}

// fallbackCustomerName scans the first table row for something name-shaped
// when the personal-info block did not yield a name.
func fallbackCustomerName(table [][]string) string {
	if len(table) == 0 {
		return "미상"
	}
	for _, c := range table[0] {
		if c == "" {
			continue
		}
		if len([]rune(c)) > 1 && !strings.Contains(c, "수급자") {
			return strings.ReplaceAll(c, " ", "")
		}
	}
	return "미상"
}
