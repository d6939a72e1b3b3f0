package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrFileNotFound is returned when the source workbook does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrSheetRead is returned when the workbook is corrupt, the sheet is
	// absent or the sheet lacks the required indicator columns.
	ErrSheetRead = errors.New("error reading sheet")
)

// LoadAndClean reads the named sheet of an xlsx workbook and cleans it.
// On error no table is returned.
func LoadAndClean(path, sheet string) (*Table, error) {
	t, err := Load(path, sheet)
	if err != nil {
		return nil, err
	}

	c, err := Clean(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSheetRead, sheet, err)
	}

	slog.Debug("loaded table", "path", path, "sheet", sheet, "rows", c.Len())
	return c, nil
}

// Load reads the named sheet as string columns without cleaning.
func Load(path, sheet string) (*Table, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path not specified", ErrFileNotFound)
	}
	if sheet == "" {
		sheet = DefaultSheet
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrSheetRead, path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrSheetRead, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Debug("error closing workbook", "path", path, "error", cerr)
		}
	}()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: sheet %q not found in %s", ErrSheetRead, sheet, path)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %w", ErrSheetRead, sheet, err)
	}

	t, err := FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %w", ErrSheetRead, sheet, err)
	}

	for _, col := range NumericColumns {
		if !t.Has(numericRaw[col]) {
			return nil, fmt.Errorf("%w: sheet %q: %w: %s", ErrSheetRead, sheet, ErrMissingColumn, numericRaw[col])
		}
	}

	return t, nil
}
