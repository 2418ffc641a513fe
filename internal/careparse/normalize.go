// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package careparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	parenRe = regexp.MustCompile(`\(.*\)`)
	plateRe = regexp.MustCompile(`\d{2,3}[가-힣]\d{4}`)
	// Everything that is not a digit, hangul, comma or space gets blanked
	// before plate matching.
	nonPlateRe = regexp.MustCompile(`[^\d가-힣, ]`)
)

// normalizeText strips whitespace, newlines and middle-dot variants. Vendor
// tables are wildly inconsistent about both.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "ㆍ", "")
	return strings.ReplaceAll(s, "·", "")
}

// normalizeRowText joins the normalized text of every non-empty cell in a row.
func normalizeRowText(row []string) string {
	var b strings.Builder
	for _, c := range row {
		if c != "" {
			b.WriteString(normalizeText(c))
		}
	}
	return b.String()
}

// cell returns the cleaned cell at (row, col), or "" when out of range.
// Newlines inside a cell become spaces.
func cell(table [][]string, row, col int) string {
	if row < 0 || row >= len(table) {
		return ""
	}
	r := table[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(r[col], "\n", " "))
}

// cleanDate normalizes a date cell to YYYY-MM-DD. Dot-separated dates are
// rewritten in place; slash-separated dates are month/day only, so the
// configured year is prepended. Idempotent on its own output. Returns ""
// when the cell cannot be read as a date.
func cleanDate(raw string, year int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(parenRe.ReplaceAllString(raw, ""), ".", "-"))
	if strings.Contains(clean, "/") {
		md := strings.SplitN(clean, "/", 2)
		if len(md) != 2 {
			return ""
		}
		month, err := strconv.Atoi(strings.TrimSpace(md[0]))
		if err != nil {
			return ""
		}
		day, err := strconv.Atoi(strings.TrimSpace(md[1]))
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	}
	return clean
}

// checkStatus maps a cell to the done/not-done enum. Membership of any
// checked glyph means done; everything else, including empty, means not
// done. Handwritten marks that match none of the glyphs are
// indistinguishable from not-done.
func (p *Parser) checkStatus(text string) string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return StatusNotDone
	}
	for _, glyph := range p.opts.CheckedGlyphs {
		if strings.Contains(clean, glyph) {
			return StatusDone
		}
	}
	return StatusNotDone
}

// isAbsence reports whether a normalized total-service-time value is one of
// the absence sentinels.
func (p *Parser) isAbsence(normalizedTotal string) bool {
	for _, s := range p.opts.AbsenceStatuses {
		if normalizedTotal == s {
			return true
		}
	}
	return false
}

// transportInfo is the result of reading a transport cell.
type transportInfo struct {
	Service  string
	Vehicles string
}

// parseTransportCell reads a transport cell into service/vehicle fields.
// Returns nil for an empty cell so the caller keeps its prior default.
func parseTransportCell(raw string) *transportInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	service := TransportNotProvided
	if strings.Contains(raw, "■") {
		service = TransportProvided
	}

	cleaned := nonPlateRe.ReplaceAllString(raw, " ")
	plates := plateRe.FindAllString(cleaned, -1)

	return &transportInfo{
		Service:  service,
		Vehicles: joinUniquePlates(plates),
	}
}

// joinUniquePlates de-duplicates plate numbers preserving first-seen order.
func joinUniquePlates(plates []string) string {
	seen := make(map[string]bool, len(plates))
	var out []string
	for _, p := range plates {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// isPlaceholder reports whether a note field still refers the reader to an
// appendix sheet instead of carrying content.
func isPlaceholder(text string) bool {
	clean := strings.ReplaceAll(text, " ", "")
	if strings.Contains(clean, "특이사항없음") {
		return false
	}
	for _, k := range []string{"별지", "첨부", "참조"} {
		if strings.Contains(clean, k) {
			return true
		}
	}
	return false
}

// pickNearbyText finds the longest non-label text on a row, used for the
// program-detail row whose content cell drifts between layouts. Falls back
// to a window around the date column.
func pickNearbyText(table [][]string, row, col, window, minLen int) string {
	if row < 0 || row >= len(table) {
		return ""
	}
	rowData := table[row]

	labelish := func(v string) bool {
		vv := normalizeText(v)
		for _, k := range []string{"신체인지기능향상프로그램", "향상프로그램", "프로그램", "향상", "항목", "내용"} {
			if strings.Contains(vv, k) {
				return true
			}
		}
		return false
	}

	best := ""
	for j := range rowData {
		v := cell(table, row, j)
		if v == "" || utf8.RuneCountInString(strings.TrimSpace(v)) < minLen || labelish(v) {
			continue
		}
		if utf8.RuneCountInString(v) > utf8.RuneCountInString(best) {
			best = v
		}
	}
	if best != "" {
		return best
	}

	start := col - window
	if start < 0 {
		start = 0
	}
	end := col + window
	if end > len(rowData)-1 {
		end = len(rowData) - 1
	}
	for j := start; j <= end; j++ {
		v := cell(table, row, j)
		if v == "" || utf8.RuneCountInString(strings.TrimSpace(v)) < minLen || labelish(v) {
			continue
		}
		if utf8.RuneCountInString(v) > utf8.RuneCountInString(best) {
			best = v
		}
	}
	return best
}
