// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pdf

import (
	"math"
	"sort"
	"strings"
)

const (
	// Fragments whose tops differ by less than rowTol points sit on the
	// same visual line.
	rowTol = 3.0
	// Column anchors closer than colTol points collapse into one column.
	colTol = 6.0
	// A table needs at least this many consecutive multi-cell lines.
	minTableRows = 2
)

// line is one visual row of fragments, left to right.
type line struct {
	top   float64
	cells []fragment
}

// buildLayout splits a page's fragments into table grids and free-standing
// text blocks. Runs of consecutive multi-fragment lines become tables;
// single-fragment lines become blocks.
func buildLayout(fragments []fragment) ([]Table, []Block) {
	lines := clusterLines(fragments)

	var tables []Table
	var blocks []Block

	var run []line
	flush := func() {
		if len(run) >= minTableRows {
			tables = append(tables, buildGrid(run))
		} else {
			for _, l := range run {
				blocks = append(blocks, lineBlock(l))
			}
		}
		run = nil
	}

	for _, l := range lines {
		if len(l.cells) >= 2 {
			run = append(run, l)
			continue
		}
		flush()
		blocks = append(blocks, lineBlock(l))
	}
	flush()

	return tables, blocks
}

// clusterLines groups fragments into visual lines by top offset.
func clusterLines(fragments []fragment) []line {
	sorted := make([]fragment, len(fragments))
	copy(sorted, fragments)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].top != sorted[j].top {
			return sorted[i].top < sorted[j].top
		}
		return sorted[i].left < sorted[j].left
	})

	var lines []line
	for _, f := range sorted {
		if n := len(lines); n > 0 && f.top-lines[n-1].top < rowTol {
			lines[n-1].cells = append(lines[n-1].cells, f)
			continue
		}
		lines = append(lines, line{top: f.top, cells: []fragment{f}})
	}
	for i := range lines {
		sort.Slice(lines[i].cells, func(a, b int) bool {
			return lines[i].cells[a].left < lines[i].cells[b].left
		})
	}
	return lines
}

func lineBlock(l line) Block {
	parts := make([]string, 0, len(l.cells))
	for _, c := range l.cells {
		parts = append(parts, c.text)
	}
	return Block{Text: strings.Join(parts, " "), Top: l.top}
}

// buildGrid turns a run of table lines into a rectangular cell grid. Column
// anchors are collected across the whole run so short rows still land in
// the right columns. Fragments falling into the same cell join with a
// newline, which is how wrapped cell text comes back out of MuPDF.
func buildGrid(run []line) Table {
	anchors := columnAnchors(run)

	data := make([][]string, len(run))
	for i, l := range run {
		row := make([]string, len(anchors))
		for _, c := range l.cells {
			col := nearestColumn(anchors, c.left)
			if row[col] == "" {
				row[col] = c.text
			} else {
				row[col] += "\n" + c.text
			}
		}
		data[i] = row
	}

	return Table{Top: run[0].top, Data: data}
}

// columnAnchors clusters every fragment's left offset across the run into
// sorted column positions.
func columnAnchors(run []line) []float64 {
	var lefts []float64
	for _, l := range run {
		for _, c := range l.cells {
			lefts = append(lefts, c.left)
		}
	}
	sort.Float64s(lefts)

	var anchors []float64
	for _, left := range lefts {
		if n := len(anchors); n > 0 && left-anchors[n-1] < colTol {
			continue
		}
		anchors = append(anchors, left)
	}
	return anchors
}

func nearestColumn(anchors []float64, left float64) int {
	best := 0
	bestDiff := math.MaxFloat64
	for i, a := range anchors {
		if diff := math.Abs(a - left); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}
