// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package pdf extracts page text, positioned text blocks and table grids
// from PDF files using go-fitz (MuPDF).
package pdf

import (
	"fmt"
	"log"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Block is a positioned run of text on a page. Top is the vertical offset
// in points from the top of the page.
type Block struct {
	Text string
	Top  float64
}

// Table is a reconstructed cell grid. Top is the vertical offset of the
// table's first row, used to attribute the table to the section heading
// above it.
type Table struct {
	Top  float64
	Data [][]string
}

// Page holds everything extracted from one PDF page.
type Page struct {
	Number int
	Text   string
	Tables []Table
	Blocks []Block
}

// ExtractPages opens a PDF and extracts every page. Pages that fail to
// extract are logged and skipped; a document where every page fails is an
// error.
// API reference: https://pkg.go.dev/github.com/gen2brain/go-fitz
func ExtractPages(filePath string) ([]Page, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	pages := make([]Page, 0, numPages)

	for i := 0; i < numPages; i++ {
		page, err := extractPage(doc, i)
		if err != nil {
			log.Printf("ExtractPages: page %d of %s: %v", i+1, filePath, err)
			continue
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages extracted from PDF: %s", filePath)
	}
	return pages, nil
}

func extractPage(doc *fitz.Document, index int) (Page, error) {
	text, err := doc.Text(index)
	if err != nil {
		return Page{}, fmt.Errorf("text extraction failed: %w", err)
	}

	page := Page{
		Number: index + 1,
		Text:   strings.TrimSpace(text),
	}

	// The HTML rendering carries absolute positions, which the plain text
	// dump does not. Tables and positioned blocks come from there.
	html, err := doc.HTML(index, false)
	if err != nil {
		// Text-only pages are still useful for header matching.
		log.Printf("extractPage: page %d: HTML extraction failed: %v", index+1, err)
		return page, nil
	}

	fragments, err := parseFragments(html)
	if err != nil {
		log.Printf("extractPage: page %d: fragment parse failed: %v", index+1, err)
		return page, nil
	}

	page.Tables, page.Blocks = buildLayout(fragments)
	return page, nil
}
