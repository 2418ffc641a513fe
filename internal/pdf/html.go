// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fragment is one absolutely positioned text run from the MuPDF HTML
// rendering of a page.
type fragment struct {
	text string
	top  float64
	left float64
}

var (
	topRe  = regexp.MustCompile(`top:\s*(-?[0-9.]+)pt`)
	leftRe = regexp.MustCompile(`left:\s*(-?[0-9.]+)pt`)
)

// parseFragments pulls every positioned <p> out of a MuPDF HTML page dump.
// MuPDF emits one <p> per text line with top/left offsets in its style
// attribute.
func parseFragments(html string) ([]fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var fragments []fragment
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		style, ok := sel.Attr("style")
		if !ok {
			return
		}
		top, okTop := styleValue(topRe, style)
		left, okLeft := styleValue(leftRe, style)
		if !okTop || !okLeft {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		fragments = append(fragments, fragment{text: text, top: top, left: left})
	})
	return fragments, nil
}

func styleValue(re *regexp.Regexp, style string) (float64, bool) {
	m := re.FindStringSubmatch(style)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
