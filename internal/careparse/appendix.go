// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package careparse

import (
	"regexp"
	"strings"
)

// appendixDateRe matches a bare date in a table's first column. Any row
// matching it marks the whole table as an appendix/continuation table; this
// is checked before row classification is even attempted.
var appendixDateRe = regexp.MustCompile(`^\d{4}[.-]\d{2}[.-]\d{2}`)

// missingAppendixSuffix is appended to note fields that still reference an
// appendix sheet after the merge found nothing for them. It is a signal
// surfaced to the reviewing user, not an error state.
const missingAppendixSuffix = " (⚠️내용 미발견)"

// isAppendixTable reports whether a table grid is an appendix continuation
// table rather than a main record table.
func isAppendixTable(table [][]string) bool {
	for _, row := range table {
		if len(row) < 2 {
			continue
		}
		if appendixDateRe.MatchString(strings.TrimSpace(row[0])) {
			return true
		}
	}
	return false
}

// parseAppendixTable reads (date, content) pairs from an appendix table into
// the accumulator under the given category. A blank date cell with content
// reuses the previous row's date to handle vertically merged cells; repeated
// same-key entries are joined with " / ".
func parseAppendixTable(table [][]string, category Category, acc *groupAccumulator) {
	lastSeenDate := ""

	for _, row := range table {
		if len(row) < 2 {
			continue
		}
		rawDate := strings.TrimSpace(row[0])
		content := strings.TrimSpace(row[1])

		currentDate := ""
		switch {
		case appendixDateRe.MatchString(rawDate):
			currentDate = strings.TrimSpace(strings.ReplaceAll(rawDate, ".", "-"))
			lastSeenDate = currentDate
		case rawDate == "" && content != "" && lastSeenDate != "":
			currentDate = lastSeenDate
		}

		if currentDate == "" || content == "" {
			continue
		}

		cleanContent := strings.TrimSpace(strings.ReplaceAll(content, "\n", " "))

		day := acc.appendix[currentDate]
		if day == nil {
			day = make(map[Category]string)
			acc.appendix[currentDate] = day
		}
		if existing, ok := day[category]; ok {
			day[category] = existing + " / " + cleanContent
		} else {
			day[category] = cleanContent
		}
	}
}

// noteFieldsFor returns pointers to the record fields a category's appendix
// text may fill. Functional entries also feed the program-detail field.
func noteFieldsFor(rec *DailyRecord, category Category) []*string {
	switch category {
	case CategoryPhysical:
		return []*string{&rec.PhysicalNote}
	case CategoryNursing:
		return []*string{&rec.NursingNote}
	case CategoryFunctional:
		return []*string{&rec.FunctionalNote, &rec.ProgEnhanceDetail}
	case CategoryCognitive:
		return []*string{&rec.CognitiveNote}
	}
	return nil
}

// mergeAppendix folds accumulated appendix entries into the group's records.
// Only fields still holding a placeholder are overwritten; fields that end
// up with no matching appendix entry get the missing-content suffix so the
// gap is visible in the UI. Merging is idempotent on populated fields.
func mergeAppendix(acc *groupAccumulator) {
	categories := []Category{CategoryPhysical, CategoryNursing, CategoryFunctional, CategoryCognitive}

	for i := range acc.records {
		rec := &acc.records[i]

		if day, ok := acc.appendix[rec.Date]; ok {
			for _, category := range categories {
				content, ok := day[category]
				if !ok || content == "" {
					continue
				}
				for _, field := range noteFieldsFor(rec, category) {
					if isPlaceholder(*field) {
						*field = content
					}
				}
			}
		}

		for _, field := range []*string{&rec.PhysicalNote, &rec.NursingNote, &rec.FunctionalNote, &rec.CognitiveNote} {
			if isPlaceholder(*field) {
				*field += missingAppendixSuffix
			}
		}
	}
}
