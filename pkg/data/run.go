package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	runListLimitDefault = 20

	insertRunSQL = `INSERT INTO run (id, created_at, year, rows, k, classes, accuracy, matrix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT id, created_at, year, rows, k, classes, accuracy, matrix
		FROM run
		ORDER BY created_at DESC, id
		LIMIT ?
	`
)

// Run is the audit record of one classification.
type Run struct {
	ID        string  `json:"id" yaml:"id"`
	CreatedAt string  `json:"created_at" yaml:"createdAt"`
	Year      *int    `json:"year,omitempty" yaml:"year,omitempty"`
	Rows      int     `json:"rows" yaml:"rows"`
	K         int     `json:"k" yaml:"k"`
	Classes   []int   `json:"classes" yaml:"classes"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Matrix    [][]int `json:"matrix" yaml:"matrix"`
}

// SaveRun stores a classification run, assigning its ID and timestamp when empty.
func SaveRun(db *sql.DB, r *Run) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil {
		return fmt.Errorf("run required")
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	classes, err := json.Marshal(r.Classes)
	if err != nil {
		return fmt.Errorf("failed to marshal run classes: %w", err)
	}
	matrix, err := json.Marshal(r.Matrix)
	if err != nil {
		return fmt.Errorf("failed to marshal run matrix: %w", err)
	}

	if _, err := db.Exec(insertRunSQL, r.ID, r.CreatedAt, r.Year, r.Rows, r.K, string(classes), r.Accuracy, string(matrix)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs first.
func ListRuns(db *sql.DB, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = runListLimitDefault
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r := &Run{}
		var year sql.NullInt64
		var classes, matrix string
		if err := rows.Scan(&r.ID, &r.CreatedAt, &year, &r.Rows, &r.K, &classes, &r.Accuracy, &matrix); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			r.Year = &y
		}
		if err := json.Unmarshal([]byte(classes), &r.Classes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run classes: %w", err)
		}
		if err := json.Unmarshal([]byte(matrix), &r.Matrix); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run matrix: %w", err)
		}
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run rows: %w", err)
	}

	return list, nil
}
