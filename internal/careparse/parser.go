// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package careparse

import (
	"sort"
	"strings"
	"time"

	"github.com/carelog/internal/pdf"
)

// groupHeaderPhrases start a new page group when found in a page's
// space-stripped text. Each group is one care recipient's record set.
var groupHeaderPhrases = []string{
	"장기요양급여제공기록지",
	"노인장기요양보험법시행규칙",
}

// sectionHeaderLabels locate the care-section headings on a page. An
// appendix table is attributed to the nearest heading above it.
var sectionHeaderLabels = []struct {
	category Category
	labels   []string
}{
	{CategoryPhysical, []string{"신체활동지원", "신체 활동 지원", "신체활동"}},
	{CategoryNursing, []string{"건강 및 간호", "간호관리", "건강관리"}},
	{CategoryFunctional, []string{"기능회복", "기능 회복"}},
	{CategoryCognitive, []string{"인지관리", "의사소통", "인지 관리", "인지지원"}},
}

// Options configures a Parser. The glyph and sentinel sets are closed lists
// baked into vendor documents; they are options so a new vendor doesn't
// require a code change. Year is required for slash-form month/day date
// cells, which carry no year of their own — documents spanning a year
// boundary must not use slash-form dates.
type Options struct {
	Year            int
	CheckedGlyphs   []string
	AbsenceStatuses []string
}

var (
	defaultCheckedGlyphs   = []string{"■", "Π", "V", "O", "☑"}
	defaultAbsenceStatuses = []string{"미이용", "결석", "일정없음"}
)

// Parser turns extracted PDF pages into daily care records. A Parser is
// stateless across calls; all per-document state lives in a per-group
// accumulator, so one Parser may be reused across documents.
type Parser struct {
	opts Options
}

// New returns a Parser with defaults applied for any zero option.
func New(opts Options) *Parser {
	if opts.Year == 0 {
		opts.Year = time.Now().Year()
	}
	if len(opts.CheckedGlyphs) == 0 {
		opts.CheckedGlyphs = defaultCheckedGlyphs
	}
	if len(opts.AbsenceStatuses) == 0 {
		opts.AbsenceStatuses = defaultAbsenceStatuses
	}
	return &Parser{opts: opts}
}

// groupAccumulator collects the state of one page group while its pages are
// processed: built records, appendix entries pending merge, and the
// page-level info maps.
type groupAccumulator struct {
	records  []DailyRecord
	appendix map[string]map[Category]string
	personal personalInfo
	basic    basicInfo
}

// Parse runs the full pipeline over a document's pages and returns every
// daily record found, in page order. Unparseable pages and tables are
// skipped, never escalated; multi-page documents frequently interleave
// unrelated pages.
func (p *Parser) Parse(pages []pdf.Page) []DailyRecord {
	var records []DailyRecord

	for _, group := range splitPageGroups(pages) {
		if len(group) == 0 {
			continue
		}

		acc := &groupAccumulator{
			appendix: make(map[string]map[Category]string),
			personal: parsePersonalInfo(group),
			basic:    parseBasicInfoBlock(group),
		}

		for _, page := range group {
			p.parsePage(page, acc)
		}

		mergeAppendix(acc)
		records = append(records, acc.records...)
	}

	return records
}

// splitPageGroups splits a multi-page document into contiguous groups, one
// per recipient, on the recurring header phrases. Pages seen before any
// header are buffered into a provisional group if they carry text. When no
// header exists at all the whole sequence becomes a single group — a wrong
// grouping beats no output.
func splitPageGroups(pages []pdf.Page) [][]pdf.Page {
	if len(pages) == 0 {
		return nil
	}

	var groups [][]pdf.Page
	var current []pdf.Page

	for _, page := range pages {
		normalized := strings.ReplaceAll(page.Text, " ", "")
		isHeader := false
		for _, phrase := range groupHeaderPhrases {
			if strings.Contains(normalized, phrase) {
				isHeader = true
				break
			}
		}

		switch {
		case isHeader:
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = []pdf.Page{page}
		case len(current) > 0:
			current = append(current, page)
		case strings.TrimSpace(page.Text) != "":
			current = []pdf.Page{page}
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	if len(groups) == 0 {
		return [][]pdf.Page{pages}
	}
	return groups
}

// sectionHeader is a located care-section heading on a page.
type sectionHeader struct {
	category Category
	top      float64
}

// findSectionHeaders scans a page's text blocks for section headings,
// returning them sorted top to bottom.
func findSectionHeaders(page pdf.Page) []sectionHeader {
	var headers []sectionHeader
	for _, entry := range sectionHeaderLabels {
		for _, label := range entry.labels {
			for _, block := range page.Blocks {
				if strings.Contains(block.Text, label) ||
					strings.Contains(strings.ReplaceAll(block.Text, " ", ""), strings.ReplaceAll(label, " ", "")) {
					headers = append(headers, sectionHeader{category: entry.category, top: block.Top})
				}
			}
		}
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].top < headers[j].top })
	return headers
}

// categoryForTable picks the nearest section heading above the table's top
// edge. Tables with no heading above them default to functional, which is
// where uncategorized continuation sheets are filed in practice.
func categoryForTable(headers []sectionHeader, tableTop float64) Category {
	category := CategoryFunctional
	closest := -1.0
	for _, h := range headers {
		if h.top >= tableTop {
			continue
		}
		diff := tableTop - h.top
		if closest < 0 || diff < closest {
			closest = diff
			category = h.category
		}
	}
	return category
}

// parsePage routes every table on a page: appendix tables feed the
// accumulator's appendix map, main tables produce records. Pages with no
// usable tables are skipped silently.
func (p *Parser) parsePage(page pdf.Page, acc *groupAccumulator) {
	if len(page.Tables) == 0 {
		return
	}

	headers := findSectionHeaders(page)

	for _, table := range page.Tables {
		if len(table.Data) == 0 {
			continue
		}

		if isAppendixTable(table.Data) {
			parseAppendixTable(table.Data, categoryForTable(headers, table.Top), acc)
			continue
		}

		p.buildRecords(table.Data, acc)
	}
}

// buildRecords assembles one DailyRecord per resolvable date column of a
// main record table. A table without a date row is skipped.
func (p *Parser) buildRecords(table [][]string, acc *groupAccumulator) {
	idx := findRowIndexes(table)
	if idx[roleDate] == -1 {
		return
	}

	dateRow := table[idx[roleDate]]

	for colIdx, rawDate := range dateRow {
		if rawDate == "" || strings.Contains(rawDate, "월/일") {
			continue
		}
		date := cleanDate(rawDate, p.opts.Year)
		if date == "" {
			continue
		}

		personal := acc.personal
		if personal.CustomerName == "" {
			personal.CustomerName = fallbackCustomerName(table)
		}

		rec := newDailyRecord(date, personal, acc.basic)

		// The absence check runs before the transport cell read so that
		// absence always wins over a contradictory transport cell.
		isAbsent := false
		if idx[roleTotalTime] != -1 {
			if totalVal := cell(table, idx[roleTotalTime], colIdx); totalVal != "" {
				normalizedTotal := strings.ReplaceAll(totalVal, " ", "")
				rec.TotalServiceTime = normalizedTotal
				if p.isAbsence(normalizedTotal) {
					rec.StartTime = ""
					rec.EndTime = ""
					rec.TransportService = TransportNotProvided
					rec.TransportVehicles = ""
					isAbsent = true
				}
			}
		}

		if !isAbsent && idx[roleTransport] != -1 {
			if t := parseTransportCell(cell(table, idx[roleTransport], colIdx)); t != nil {
				rec.TransportService = t.Service
				rec.TransportVehicles = t.Vehicles
			}
		}

		if idx[roleTime] != -1 {
			if val := cell(table, idx[roleTime], colIdx); strings.Contains(val, "~") {
				parts := strings.SplitN(val, "~", 2)
				rec.StartTime = strings.TrimSpace(parts[0])
				rec.EndTime = strings.TrimSpace(parts[1])
			}
		}

		if idx[roleHygiene] != -1 {
			rec.HygieneCare = p.checkStatus(cell(table, idx[roleHygiene], colIdx))
		}

		bathTime := ""
		if idx[roleBathTime] != -1 {
			bathTime = cell(table, idx[roleBathTime], colIdx)
		}
		bathMethod := ""
		if idx[roleBathMethod] != -1 {
			bathMethod = cell(table, idx[roleBathMethod], colIdx)
		}
		if (bathTime == "" || bathTime == "-") && (bathMethod == "" || bathMethod == "-") {
			// Collapse to a single sentinel instead of rendering "- / -".
			rec.BathTime = BathNone
			rec.BathMethod = ""
		} else {
			rec.BathTime = bathTime
			rec.BathMethod = bathMethod
		}

		if idx[roleMealBk] != -1 {
			rec.MealBreakfast = cell(table, idx[roleMealBk], colIdx)
		}
		if idx[roleMealLn] != -1 {
			rec.MealLunch = cell(table, idx[roleMealLn], colIdx)
		}
		if idx[roleMealDn] != -1 {
			rec.MealDinner = cell(table, idx[roleMealDn], colIdx)
		}

		if idx[roleExcretion] != -1 {
			rec.ToiletCare = cell(table, idx[roleExcretion], colIdx)
		}
		if idx[roleMobility] != -1 {
			rec.MobilityCare = p.checkStatus(cell(table, idx[roleMobility], colIdx))
		}

		if idx[roleCogSup] != -1 {
			rec.CogSupport = p.checkStatus(cell(table, idx[roleCogSup], colIdx))
		}
		if idx[roleCommSup] != -1 {
			rec.CommSupport = p.checkStatus(cell(table, idx[roleCommSup], colIdx))
		}
		if idx[roleBPTemp] != -1 {
			rec.BPTemp = cell(table, idx[roleBPTemp], colIdx)
		}
		if idx[roleHealth] != -1 {
			rec.HealthManage = p.checkStatus(cell(table, idx[roleHealth], colIdx))
		}
		if idx[roleNursing] != -1 {
			rec.NursingManage = p.checkStatus(cell(table, idx[roleNursing], colIdx))
		}
		if idx[roleEmergency] != -1 {
			rec.Emergency = p.checkStatus(cell(table, idx[roleEmergency], colIdx))
		}

		if idx[roleProgBasic] != -1 {
			rec.ProgBasic = p.checkStatus(cell(table, idx[roleProgBasic], colIdx))
		}
		if idx[roleProgAct] != -1 {
			rec.ProgActivity = p.checkStatus(cell(table, idx[roleProgAct], colIdx))
		}
		if idx[roleProgCog] != -1 {
			rec.ProgCognitive = p.checkStatus(cell(table, idx[roleProgCog], colIdx))
		}
		if idx[roleProgTher] != -1 {
			rec.ProgTherapy = p.checkStatus(cell(table, idx[roleProgTher], colIdx))
		}
		if idx[roleProgDetail] != -1 {
			rec.ProgEnhanceDetail = pickNearbyText(table, idx[roleProgDetail], colIdx, 8, 2)
		}

		if idx[roleNotePhy] != -1 {
			rec.PhysicalNote = cell(table, idx[roleNotePhy], colIdx)
		}
		if idx[roleNoteCog] != -1 {
			rec.CognitiveNote = cell(table, idx[roleNoteCog], colIdx)
		}
		if idx[roleNoteNur] != -1 {
			rec.NursingNote = cell(table, idx[roleNoteNur], colIdx)
		}
		if idx[roleNoteFunc] != -1 {
			rec.FunctionalNote = cell(table, idx[roleNoteFunc], colIdx)
		}

		if idx[roleWriterPhy] != -1 {
			rec.WriterPhy = cell(table, idx[roleWriterPhy], colIdx)
		}
		if idx[roleWriterCog] != -1 {
			rec.WriterCog = cell(table, idx[roleWriterCog], colIdx)
		}
		if idx[roleWriterNur] != -1 {
			rec.WriterNur = cell(table, idx[roleWriterNur], colIdx)
		}
		if idx[roleWriterFunc] != -1 {
			rec.WriterFunc = cell(table, idx[roleWriterFunc], colIdx)
		}

		acc.records = append(acc.records, rec)
	}
}
