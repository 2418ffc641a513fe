// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package careparse

import (
	"log"
	"strings"
)

// rowRole names a semantic row in the main record table.
type rowRole string

const (
	roleDate       rowRole = "date"
	roleTime       rowRole = "time"
	roleTotalTime  rowRole = "total_time"
	roleHygiene    rowRole = "hygiene"
	roleBathTime   rowRole = "bath_time"
	roleBathMethod rowRole = "bath_method"
	roleMealBk     rowRole = "meal_bk"
	roleMealLn     rowRole = "meal_ln"
	roleMealDn     rowRole = "meal_dn"
	roleExcretion  rowRole = "excretion"
	roleMobility   rowRole = "mobility"
	roleTransport  rowRole = "transport"
	roleCogSup     rowRole = "cog_sup"
	roleCommSup    rowRole = "comm_sup"
	roleBPTemp     rowRole = "bp_temp"
	roleHealth     rowRole = "health"
	roleNursing    rowRole = "nursing"
	roleEmergency  rowRole = "emergency"
	roleProgBasic  rowRole = "prog_basic"
	roleProgAct    rowRole = "prog_act"
	roleProgCog    rowRole = "prog_cog"
	roleProgTher   rowRole = "prog_ther"
	roleProgDetail rowRole = "prog_detail"
	roleNotePhy    rowRole = "note_phy"
	roleNoteCog    rowRole = "note_cog"
	roleNoteNur    rowRole = "note_nur"
	roleNoteFunc   rowRole = "note_func"
	roleWriterPhy  rowRole = "writer_phy"
	roleWriterCog  rowRole = "writer_cog"
	roleWriterNur  rowRole = "writer_nur"
	roleWriterFunc rowRole = "writer_func"

	// Pseudo-roles: matching rows are collected in document order and then
	// assigned by ordinal position (see noteWriterOrder).
	roleNote   rowRole = "note"
	roleWriter rowRole = "writer"
)

// noteWriterOrder is the assumed document order of the repeated note and
// writer rows. The Nth occurrence of either row class belongs to the Nth
// category here. Source tables always lay the four care sections out in this
// order; when they don't, the locator logs it rather than guessing.
var noteWriterOrder = [...]Category{
	CategoryPhysical,
	CategoryCognitive,
	CategoryNursing,
	CategoryFunctional,
}

// rowLabels carries the three normalizations a rule may test against:
// label is the first three cells with whitespace stripped, normLabel
// additionally strips middle dots, normRow is the whole row normalized.
type rowLabels struct {
	label     string
	normLabel string
	normRow   string
}

// rowRule pairs a predicate with the role it assigns. Rules are evaluated
// top to bottom and the first match wins, so precedence between overlapping
// labels ("간호관리" vs "건강관리" vs "인지관리지원" all contain "관리") lives in
// the order of this list, not in control flow.
type rowRule struct {
	role  rowRole
	match func(l rowLabels) bool
}

func labelHas(substr string) func(rowLabels) bool {
	return func(l rowLabels) bool { return strings.Contains(l.label, substr) }
}

var rowRules = []rowRule{
	{roleDate, labelHas("년월/일")},
	{roleTime, labelHas("시작시간")},
	{roleTotalTime, labelHas("총시간")},

	// Physical activity section.
	{roleHygiene, labelHas("세면")},
	{roleBathTime, labelHas("소요시간")},
	{roleBathMethod, func(l rowLabels) bool {
		return strings.Contains(l.label, "목욕") && strings.Contains(l.label, "방법")
	}},
	{roleMealBk, labelHas("아침")},
	{roleMealLn, labelHas("점심")},
	{roleMealDn, labelHas("저녁")},
	{roleExcretion, func(l rowLabels) bool {
		return strings.Contains(l.label, "화장실") || strings.Contains(l.label, "기저귀")
	}},
	{roleMobility, labelHas("이동도움")},
	{roleTransport, labelHas("이동서비스")},

	// Cognitive section.
	{roleCogSup, labelHas("인지관리지원")},
	{roleCommSup, labelHas("의사소통")},

	// Nursing section.
	{roleBPTemp, labelHas("혈압")},
	{roleHealth, labelHas("건강관리")},
	{roleNursing, labelHas("간호관리")},
	{roleEmergency, labelHas("응급")},

	// Functional recovery section. The program-detail label wanders across
	// cells and spellings, hence the fallback chain.
	{roleProgBasic, labelHas("기본동작")},
	{roleProgAct, labelHas("인지활동")},
	{roleProgDetail, func(l rowLabels) bool {
		inLabel := strings.Contains(l.label, "신체") && strings.Contains(l.label, "인지기능") &&
			strings.Contains(l.label, "향상") && strings.Contains(l.label, "프로그램")
		return inLabel || strings.Contains(l.normRow, "신체인지기능향상프로그램")
	}},
	{roleProgCog, func(l rowLabels) bool {
		inLabel := strings.Contains(l.label, "인지기능") && strings.Contains(l.label, "향상") &&
			strings.Contains(l.label, "훈련")
		return inLabel || strings.Contains(l.normRow, "인지기능향상훈련")
	}},
	{roleProgTher, labelHas("물리")},
	{roleProgDetail, func(l rowLabels) bool {
		return strings.Contains(l.normLabel, "신체인지기능향상프로그램") &&
			(strings.Contains(l.normLabel, "항목") || strings.Contains(l.normLabel, "내용"))
	}},
	{roleProgDetail, func(l rowLabels) bool {
		return strings.Contains(l.normRow, "신체인지기능향상프로그램") &&
			(strings.Contains(l.normRow, "항목") || strings.Contains(l.normRow, "내용"))
	}},
	{roleProgDetail, func(l rowLabels) bool { return strings.Contains(l.normLabel, "신체인지기능향상프로그램") }},
	{roleProgDetail, func(l rowLabels) bool { return strings.Contains(l.normRow, "신체인지기능향상프로그램") }},
	{roleProgDetail, func(l rowLabels) bool {
		return strings.Contains(l.normRow, "향상프로그램") &&
			(strings.Contains(l.normRow, "항목") || strings.Contains(l.normRow, "내용"))
	}},

	// Repeated rows, assigned by ordinal later.
	{roleNote, labelHas("특이사항")},
	{roleWriter, labelHas("작성자")},
}

// rowIndexes maps every role to its row index, -1 when unmatched.
type rowIndexes map[rowRole]int

func newRowIndexes() rowIndexes {
	idx := rowIndexes{}
	for _, r := range []rowRole{
		roleDate, roleTime, roleTotalTime,
		roleHygiene, roleBathTime, roleBathMethod,
		roleMealBk, roleMealLn, roleMealDn,
		roleExcretion, roleMobility, roleTransport,
		roleNotePhy, roleWriterPhy,
		roleCogSup, roleCommSup, roleNoteCog, roleWriterCog,
		roleBPTemp, roleHealth, roleNursing, roleEmergency, roleNoteNur, roleWriterNur,
		roleProgBasic, roleProgAct, roleProgCog, roleProgTher, roleProgDetail,
		roleNoteFunc, roleWriterFunc,
	} {
		idx[r] = -1
	}
	return idx
}

// findRowIndexes classifies every row of a table grid into its semantic
// role. Each row takes exactly one role (first matching rule); for
// singly-valued roles a later matching row overwrites an earlier one.
func findRowIndexes(table [][]string) rowIndexes {
	idx := newRowIndexes()

	var noteRows, writerRows []int

	for i, row := range table {
		var b strings.Builder
		for j, c := range row {
			if j >= 3 {
				break
			}
			if c != "" {
				b.WriteString(strings.ReplaceAll(strings.ReplaceAll(c, "\n", ""), " ", ""))
			}
		}
		label := b.String()
		labels := rowLabels{
			label:     label,
			normLabel: strings.ReplaceAll(strings.ReplaceAll(label, "ㆍ", ""), "·", ""),
			normRow:   normalizeRowText(row),
		}

		for _, rule := range rowRules {
			if !rule.match(labels) {
				continue
			}
			switch rule.role {
			case roleNote:
				noteRows = append(noteRows, i)
			case roleWriter:
				writerRows = append(writerRows, i)
			default:
				idx[rule.role] = i
			}
			break
		}
	}

	assignOrdinal(idx, noteRows, [4]rowRole{roleNotePhy, roleNoteCog, roleNoteNur, roleNoteFunc}, "note")
	assignOrdinal(idx, writerRows, [4]rowRole{roleWriterPhy, roleWriterCog, roleWriterNur, roleWriterFunc}, "writer")

	return idx
}

// assignOrdinal maps the Nth collected row to the Nth category role.
// Anything past the fourth occurrence is dropped; a count other than the
// expected four is worth knowing about, so it is logged.
func assignOrdinal(idx rowIndexes, rows []int, roles [4]rowRole, kind string) {
	if len(rows) > 0 && len(rows) != len(noteWriterOrder) {
		log.Printf("findRowIndexes: expected %d %s rows (%v order), found %d",
			len(noteWriterOrder), kind, noteWriterOrder, len(rows))
	}
	for n, rowIdx := range rows {
		if n >= len(roles) {
			break
		}
		idx[roles[n]] = rowIdx
	}
}
