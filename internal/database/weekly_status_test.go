// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"testing"
)

func newWeeklyStore(t *testing.T) *WeeklyStatusStore {
	t.Helper()
	db := openTestDB(t)
	if _, err := NewCustomerStore(db); err != nil {
		t.Fatalf("failed to create customer store: %v", err)
	}
	s, err := NewWeeklyStatusStore(db)
	if err != nil {
		t.Fatalf("failed to create weekly status store: %v", err)
	}
	return s
}

func TestWeeklyStatusSaveLoad(t *testing.T) {
	s := newWeeklyStore(t)

	if err := s.Save(1, "2025-11-03", "2025-11-09", "첫 보고서"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(1, "2025-11-03", "2025-11-09")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "첫 보고서" {
		t.Errorf("Load = %q", got)
	}

	// Saving the same week again replaces the text.
	if err := s.Save(1, "2025-11-03", "2025-11-09", "수정 보고서"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	got, err = s.Load(1, "2025-11-03", "2025-11-09")
	if err != nil || got != "수정 보고서" {
		t.Errorf("upsert failed: %q (%v)", got, err)
	}
}

func TestWeeklyStatusLoadMissing(t *testing.T) {
	s := newWeeklyStore(t)
	got, err := s.Load(1, "2025-11-03", "2025-11-09")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty for missing report, got %q", got)
	}
}

func TestWeeklyStatusListAndDelete(t *testing.T) {
	s := newWeeklyStore(t)

	weeks := [][2]string{
		{"2025-11-03", "2025-11-09"},
		{"2025-11-10", "2025-11-16"},
	}
	for _, w := range weeks {
		if err := s.Save(1, w[0], w[1], "보고서 "+w[0]); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	list, err := s.ListByCustomer(1, 10)
	if err != nil {
		t.Fatalf("ListByCustomer failed: %v", err)
	}
	if len(list) != 2 || list[0].StartDate != "2025-11-10" {
		t.Errorf("expected newest week first: %+v", list)
	}

	if err := s.Delete(1, "2025-11-10", "2025-11-16"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err := s.Load(1, "2025-11-10", "2025-11-16")
	if err != nil || got != "" {
		t.Errorf("report not deleted: %q (%v)", got, err)
	}
}
