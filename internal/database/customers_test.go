// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"testing"
)

func newCustomerStore(t *testing.T) *CustomerStore {
	t.Helper()
	db := openTestDB(t)
	s, err := NewCustomerStore(db)
	if err != nil {
		t.Fatalf("failed to create customer store: %v", err)
	}
	return s
}

func TestCustomerCRUD(t *testing.T) {
	s := newCustomerStore(t)

	id, err := s.Create(Customer{Name: "홍길동", BirthDate: "1940-01-02", Grade: "3등급"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	c, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c == nil || c.Name != "홍길동" || c.Grade != "3등급" {
		t.Fatalf("unexpected customer: %+v", c)
	}

	c.Grade = "2등급"
	if err := s.Update(*c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	c, err = s.Get(id)
	if err != nil || c.Grade != "2등급" {
		t.Fatalf("update not applied: %+v (%v)", c, err)
	}

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	c, err = s.Get(id)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if c != nil {
		t.Errorf("customer not deleted: %+v", c)
	}
}

func TestCustomerListKeyword(t *testing.T) {
	s := newCustomerStore(t)

	for _, c := range []Customer{
		{Name: "홍길동", RecognitionNo: "L1111111111"},
		{Name: "김영희", RecognitionNo: "L2222222222"},
	} {
		if _, err := s.Create(c); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := s.List("김영")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "김영희" {
		t.Errorf("name keyword filter wrong: %+v", got)
	}

	got, err = s.List("L1111")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "홍길동" {
		t.Errorf("recognition keyword filter wrong: %+v", got)
	}
}

func TestResolvePriority(t *testing.T) {
	s := newCustomerStore(t)

	// Two customers sharing a name; only one carries a recognition number.
	withRecog, err := s.Create(Customer{Name: "홍길동", BirthDate: "1940-01-02", RecognitionNo: "L1234567890"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sameName, err := s.Create(Customer{Name: "홍길동", BirthDate: "1955-06-07"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Recognition number wins over both name matches.
	id, err := s.Resolve("홍길동", "1955-06-07", "", "L1234567890")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != withRecog {
		t.Errorf("recognition number should win: got %d, want %d", id, withRecog)
	}

	// Without a recognition number, name plus birth date decides.
	id, err = s.Resolve("홍길동", "1955-06-07", "", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != sameName {
		t.Errorf("name+birth should win: got %d, want %d", id, sameName)
	}

	// Unknown identity creates a new customer.
	id, err = s.Resolve("박철수", "1948-03-04", "4등급", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	created, err := s.Get(id)
	if err != nil || created == nil {
		t.Fatalf("created customer not found: %v", err)
	}
	if created.Grade != "4등급" {
		t.Errorf("created customer missing fields: %+v", created)
	}

	// A nameless record cannot be resolved.
	if _, err := s.Resolve("", "", "", ""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestResolveRefreshesIdentity(t *testing.T) {
	s := newCustomerStore(t)

	id, err := s.Create(Customer{Name: "홍길동"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := s.Resolve("홍길동", "1940-01-02", "3등급", "L1234567890"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	c, err := s.Get(id)
	if err != nil || c == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c.BirthDate != "1940-01-02" || c.Grade != "3등급" || c.RecognitionNo != "L1234567890" {
		t.Errorf("identity not refreshed: %+v", c)
	}
}
