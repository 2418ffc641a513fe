// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// Customer is a care recipient.
type Customer struct {
	CustomerID       int64  `json:"customer_id"`
	Name             string `json:"name"`
	BirthDate        string `json:"birth_date"`
	Gender           string `json:"gender"`
	RecognitionNo    string `json:"recognition_no"`
	BenefitStartDate string `json:"benefit_start_date"`
	Grade            string `json:"grade"`
}

// CustomerStore handles customer rows in SQLite.
type CustomerStore struct {
	db *sql.DB
}

// NewCustomerStore creates a customer store and its schema.
func NewCustomerStore(db *sql.DB) (*CustomerStore, error) {
	s := &CustomerStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize customers schema: %w", err)
	}
	return s, nil
}

// initSchema creates the customers table if it doesn't exist
func (s *CustomerStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		customer_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		birth_date TEXT,
		gender TEXT,
		recognition_no TEXT,
		benefit_start_date TEXT,
		grade TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);
	CREATE INDEX IF NOT EXISTS idx_customers_recognition_no ON customers(recognition_no);
	`
	_, err := s.db.Exec(schema)
	return err
}

const customerColumns = "customer_id, name, birth_date, gender, recognition_no, benefit_start_date, grade"

func scanCustomer(row *sql.Row) (*Customer, error) {
	var c Customer
	var birth, gender, recog, benefit, grade sql.NullString
	err := row.Scan(&c.CustomerID, &c.Name, &birth, &gender, &recog, &benefit, &grade)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.BirthDate = birth.String
	c.Gender = gender.String
	c.RecognitionNo = recog.String
	c.BenefitStartDate = benefit.String
	c.Grade = grade.String
	return &c, nil
}

// List returns all customers, newest first, optionally filtered by a
// name/recognition-number keyword.
func (s *CustomerStore) List(keyword string) ([]Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers ORDER BY customer_id DESC"
	args := []any{}
	if keyword != "" {
		like := "%" + keyword + "%"
		query = "SELECT " + customerColumns + ` FROM customers
			WHERE name LIKE ? OR recognition_no LIKE ?
			ORDER BY customer_id DESC`
		args = []any{like, like}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		var birth, gender, recog, benefit, grade sql.NullString
		if err := rows.Scan(&c.CustomerID, &c.Name, &birth, &gender, &recog, &benefit, &grade); err != nil {
			return nil, err
		}
		c.BirthDate = birth.String
		c.Gender = gender.String
		c.RecognitionNo = recog.String
		c.BenefitStartDate = benefit.String
		c.Grade = grade.String
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Get returns a customer by ID, or nil when not found.
func (s *CustomerStore) Get(customerID int64) (*Customer, error) {
	return scanCustomer(s.db.QueryRow(
		"SELECT "+customerColumns+" FROM customers WHERE customer_id = ?", customerID))
}

// Create inserts a customer and returns the new ID.
func (s *CustomerStore) Create(c Customer) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO customers (name, birth_date, gender, recognition_no, benefit_start_date, grade)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, nullIfEmpty(c.BirthDate), nullIfEmpty(c.Gender),
		nullIfEmpty(c.RecognitionNo), nullIfEmpty(c.BenefitStartDate), nullIfEmpty(c.Grade),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update overwrites every mutable field of a customer.
func (s *CustomerStore) Update(c Customer) error {
	_, err := s.db.Exec(`
		UPDATE customers
		SET name = ?, birth_date = ?, gender = ?, recognition_no = ?, benefit_start_date = ?, grade = ?
		WHERE customer_id = ?`,
		c.Name, nullIfEmpty(c.BirthDate), nullIfEmpty(c.Gender),
		nullIfEmpty(c.RecognitionNo), nullIfEmpty(c.BenefitStartDate), nullIfEmpty(c.Grade),
		c.CustomerID,
	)
	return err
}

// Delete removes a customer row.
func (s *CustomerStore) Delete(customerID int64) error {
	_, err := s.db.Exec("DELETE FROM customers WHERE customer_id = ?", customerID)
	return err
}

// querier is the subset of *sql.DB and *sql.Tx the resolve path needs, so
// the same lookup logic can run standalone or inside an upload transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func findCustomerBy(q querier, where string, args ...any) (*Customer, error) {
	return scanCustomer(q.QueryRow(
		"SELECT "+customerColumns+" FROM customers WHERE "+where+" ORDER BY customer_id DESC LIMIT 1",
		args...))
}

func (s *CustomerStore) findBy(where string, args ...any) (*Customer, error) {
	return findCustomerBy(s.db, where, args...)
}

// FindByRecognitionNo returns the most recent customer with the given
// long-term-care recognition number.
func (s *CustomerStore) FindByRecognitionNo(recognitionNo string) (*Customer, error) {
	return s.findBy("recognition_no = ?", recognitionNo)
}

// FindByNameAndBirth returns the most recent customer matching name and
// birth date.
func (s *CustomerStore) FindByNameAndBirth(name, birthDate string) (*Customer, error) {
	return s.findBy("name = ? AND birth_date = ?", name, birthDate)
}

// FindByName returns the most recent customer with the given name.
func (s *CustomerStore) FindByName(name string) (*Customer, error) {
	return s.findBy("name = ?", name)
}

// Resolve finds the customer a parsed record belongs to, trying the most
// specific identity first: recognition number, then name plus birth date,
// then bare name. When nothing matches a new customer is created. Matched
// customers get their identity fields refreshed from the record, since the
// source document is more current than the row.
func (s *CustomerStore) Resolve(name, birthDate, grade, recognitionNo string) (int64, error) {
	return resolveCustomer(s.db, name, birthDate, grade, recognitionNo)
}

// ResolveTx is Resolve running inside an open transaction. Upload batches
// must use this form: resolving on a second pool connection while the batch
// transaction holds SQLite's write lock would deadlock.
func (s *CustomerStore) ResolveTx(tx *sql.Tx, name, birthDate, grade, recognitionNo string) (int64, error) {
	return resolveCustomer(tx, name, birthDate, grade, recognitionNo)
}

func resolveCustomer(q querier, name, birthDate, grade, recognitionNo string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("cannot resolve customer without a name")
	}

	var found *Customer
	var err error

	if recognitionNo != "" {
		if found, err = findCustomerBy(q, "recognition_no = ?", recognitionNo); err != nil {
			return 0, err
		}
	}
	if found == nil && birthDate != "" {
		if found, err = findCustomerBy(q, "name = ? AND birth_date = ?", name, birthDate); err != nil {
			return 0, err
		}
	}
	if found == nil {
		if found, err = findCustomerBy(q, "name = ?", name); err != nil {
			return 0, err
		}
	}

	if found != nil {
		_, err = q.Exec(`
			UPDATE customers SET birth_date = COALESCE(?, birth_date),
				grade = COALESCE(?, grade),
				recognition_no = COALESCE(?, recognition_no)
			WHERE customer_id = ?`,
			nullIfEmpty(birthDate), nullIfEmpty(grade), nullIfEmpty(recognitionNo), found.CustomerID,
		)
		return found.CustomerID, err
	}

	res, err := q.Exec(`
		INSERT INTO customers (name, birth_date, gender, recognition_no, benefit_start_date, grade)
		VALUES (?, ?, ?, ?, ?, ?)`,
		name, nullIfEmpty(birthDate), nil, nullIfEmpty(recognitionNo), nil, nullIfEmpty(grade),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
