package data

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mchmarny/edupulse/pkg/dataset"
)

const (
	deleteRecordsSQL = `DELETE FROM record`

	insertRecordSQL = `INSERT INTO record (
			year, school_code, municipality_code, municipality, school,
			funding, approval, quality
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	insertImportLogSQL = `INSERT INTO import_log (source, sheet, rows, imported_at)
		VALUES (?, ?, ?, ?)
	`

	selectRecordsSQL = `SELECT
			year, school_code, municipality_code, municipality, school,
			funding, approval, quality
		FROM record
		WHERE year = COALESCE(?, year)
		ORDER BY id
	`

	selectLastImportSQL = `SELECT source, sheet, rows, imported_at
		FROM import_log
		ORDER BY id DESC
		LIMIT 1
	`
)

// Import describes the last successful import.
type Import struct {
	Source     string `json:"source" yaml:"source"`
	Sheet      string `json:"sheet" yaml:"sheet"`
	Rows       int    `json:"rows" yaml:"rows"`
	ImportedAt string `json:"imported_at" yaml:"importedAt"`
}

// SaveRecords replaces all stored records in a single transaction and logs the import.
func SaveRecords(db *sql.DB, source, sheet string, list []*dataset.Record) (*Import, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(deleteRecordsSQL); err != nil {
		return nil, rollback(tx, fmt.Errorf("failed to delete records: %w", err))
	}

	stmt, err := tx.Prepare(insertRecordSQL)
	if err != nil {
		return nil, rollback(tx, fmt.Errorf("failed to prepare record insert statement: %w", err))
	}
	defer stmt.Close()

	for _, r := range list {
		if _, err := stmt.Exec(
			r.Year, r.SchoolCode, r.MunicipalityCode, r.Municipality, r.School,
			nullFloat(r.Funding), nullFloat(r.Approval), nullFloat(r.Quality),
		); err != nil {
			return nil, rollback(tx, fmt.Errorf("failed to insert record: %w", err))
		}
	}

	imp := &Import{
		Source:     source,
		Sheet:      sheet,
		Rows:       len(list),
		ImportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := tx.Exec(insertImportLogSQL, imp.Source, imp.Sheet, imp.Rows, imp.ImportedAt); err != nil {
		return nil, rollback(tx, fmt.Errorf("failed to insert import log: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return imp, nil
}

// GetRecords returns stored records, optionally for a single year.
func GetRecords(db *sql.DB, year *int) ([]*dataset.Record, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectRecordsSQL, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	list := make([]*dataset.Record, 0)
	for rows.Next() {
		r := &dataset.Record{}
		var funding, approval, quality sql.NullFloat64
		if err := rows.Scan(
			&r.Year, &r.SchoolCode, &r.MunicipalityCode, &r.Municipality, &r.School,
			&funding, &approval, &quality,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		r.Funding = fromNull(funding)
		r.Approval = fromNull(approval)
		r.Quality = fromNull(quality)
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record rows: %w", err)
	}

	return list, nil
}

// GetLastImport returns the most recent import or nil when nothing was imported.
func GetLastImport(db *sql.DB) (*Import, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	imp := &Import{}
	err := db.QueryRow(selectLastImportSQL).Scan(&imp.Source, &imp.Sheet, &imp.Rows, &imp.ImportedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last import: %w", err)
	}
	return imp, nil
}

func rollback(tx *sql.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rerr))
	}
	return err
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
