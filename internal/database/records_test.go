// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/carelog/internal/careparse"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStores(t *testing.T) (*CustomerStore, *RecordStore) {
	t.Helper()
	db := openTestDB(t)
	customers, err := NewCustomerStore(db)
	if err != nil {
		t.Fatalf("failed to create customer store: %v", err)
	}
	records, err := NewRecordStore(db, customers)
	if err != nil {
		t.Fatalf("failed to create record store: %v", err)
	}
	return customers, records
}

func TestOpenInMemoryCapsPool(t *testing.T) {
	// sqlite gives each pooled connection its own private in-memory
	// database; more than one connection would split the schema from the
	// data.
	db := openTestDB(t)
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1 for :memory:", got)
	}
}

func sampleRecord(name, date string) careparse.DailyRecord {
	return careparse.DailyRecord{
		Date:              date,
		CustomerName:      name,
		CustomerBirthDate: "1940-01-02",
		CustomerGrade:     "3등급",
		StartTime:         "09:00",
		EndTime:           "17:00",
		TotalServiceTime:  "480분",
		TransportService:  careparse.TransportProvided,
		TransportVehicles: "12가3456",
		HygieneCare:       careparse.StatusDone,
		MealLunch:         "일반식 전량",
		PhysicalNote:      "산책함",
		WriterPhy:         "김요양",
	}
}

func TestSaveParsedDataAndReadBack(t *testing.T) {
	_, records := newTestStores(t)

	saved, err := records.SaveParsedData([]careparse.DailyRecord{
		sampleRecord("홍길동", "2025-11-05"),
		sampleRecord("홍길동", "2025-11-06"),
	})
	if err != nil {
		t.Fatalf("SaveParsedData failed: %v", err)
	}
	if saved != 2 {
		t.Fatalf("saved = %d, want 2", saved)
	}

	got, err := records.GetByDateRange("2025-11-01", "2025-11-30")
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	first := got[0]
	if first.Date != "2025-11-05" || first.HygieneCare != careparse.StatusDone {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.PhysicalNote != "산책함" || first.WriterPhy != "김요양" {
		t.Errorf("physical detail not persisted: %+v", first)
	}
}

func TestSaveParsedDataUpsertReplacesChildren(t *testing.T) {
	_, records := newTestStores(t)

	rec := sampleRecord("홍길동", "2025-11-05")
	if _, err := records.SaveParsedData([]careparse.DailyRecord{rec}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	rec.PhysicalNote = "수정된 내용"
	rec.MealLunch = "죽식 1/2이상"
	if _, err := records.SaveParsedData([]careparse.DailyRecord{rec}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := records.GetByDateRange("2025-11-05", "2025-11-05")
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("re-upload duplicated the record: %d rows", len(got))
	}
	if got[0].PhysicalNote != "수정된 내용" || got[0].MealLunch != "죽식 1/2이상" {
		t.Errorf("children not replaced: %+v", got[0])
	}
}

func TestSaveParsedDataResolvesSameCustomerOnce(t *testing.T) {
	customers, records := newTestStores(t)

	if _, err := records.SaveParsedData([]careparse.DailyRecord{
		sampleRecord("홍길동", "2025-11-05"),
		sampleRecord("홍길동", "2025-11-06"),
	}); err != nil {
		t.Fatalf("SaveParsedData failed: %v", err)
	}

	all, err := customers.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(all))
	}
	if all[0].BirthDate != "1940-01-02" || all[0].Grade != "3등급" {
		t.Errorf("customer identity not refreshed: %+v", all[0])
	}
}

func TestSaveParsedDataMultipleCustomersFileDB(t *testing.T) {
	// A file-backed database uses the real connection pool, so this catches
	// any customer resolution escaping the batch transaction: a second
	// connection would block on the write lock until busy_timeout.
	db, err := Open(filepath.Join(t.TempDir(), "carelog.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	customers, err := NewCustomerStore(db)
	if err != nil {
		t.Fatalf("failed to create customer store: %v", err)
	}
	records, err := NewRecordStore(db, customers)
	if err != nil {
		t.Fatalf("failed to create record store: %v", err)
	}

	second := sampleRecord("김영희", "2025-11-05")
	second.CustomerBirthDate = "1938-07-21"
	saved, err := records.SaveParsedData([]careparse.DailyRecord{
		sampleRecord("홍길동", "2025-11-05"),
		sampleRecord("홍길동", "2025-11-06"),
		second,
	})
	if err != nil {
		t.Fatalf("SaveParsedData failed: %v", err)
	}
	if saved != 3 {
		t.Fatalf("saved = %d, want 3", saved)
	}

	all, err := customers.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(all))
	}
}

func TestGetCustomerRecordsDateRange(t *testing.T) {
	customers, records := newTestStores(t)

	if _, err := records.SaveParsedData([]careparse.DailyRecord{
		sampleRecord("홍길동", "2025-11-03"),
		sampleRecord("홍길동", "2025-11-10"),
	}); err != nil {
		t.Fatalf("SaveParsedData failed: %v", err)
	}

	c, err := customers.FindByName("홍길동")
	if err != nil || c == nil {
		t.Fatalf("customer not found: %v", err)
	}

	got, err := records.GetCustomerRecords(c.CustomerID, "2025-11-03", "2025-11-09")
	if err != nil {
		t.Fatalf("GetCustomerRecords failed: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2025-11-03" {
		t.Errorf("date range filter wrong: %+v", got)
	}
}

func TestFindRecordIDMissing(t *testing.T) {
	_, records := newTestStores(t)
	id, err := records.FindRecordID(999, "2025-11-05")
	if err != nil {
		t.Fatalf("FindRecordID failed: %v", err)
	}
	if id != 0 {
		t.Errorf("expected 0 for missing record, got %d", id)
	}
}

func TestCustomersWithRecords(t *testing.T) {
	customers, records := newTestStores(t)

	if _, err := customers.Create(Customer{Name: "없는손님"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := records.SaveParsedData([]careparse.DailyRecord{sampleRecord("홍길동", "2025-11-05")}); err != nil {
		t.Fatalf("SaveParsedData failed: %v", err)
	}

	got, err := records.CustomersWithRecords("", "")
	if err != nil {
		t.Fatalf("CustomersWithRecords failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "홍길동" {
		t.Errorf("expected only customers with records: %+v", got)
	}
}
