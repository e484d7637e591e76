package calibration

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is a CSV file held in memory with its header.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a CSV file with a header row.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()
	return ParseTable(f)
}

// ParseTable reads CSV with a header row from r.
func ParseTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header")
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	rows := records[1:]
	for i, row := range rows {
		if len(row) < len(header) {
			rows[i] = append(row, make([]string, len(header)-len(row))...)
		}
	}
	return &Table{Header: header, Rows: rows}, nil
}

// Index returns the position of a column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Floats parses a numeric column. Empty cells and "nan" become NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, err := ParseCell(row[idx])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", i+2, name, err)
		}
		out[i] = v
	}
	return out, nil
}

// SetFloats replaces or appends a numeric column.
func (t *Table) SetFloats(name string, values []float64) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %s has %d values for %d rows", name, len(values), len(t.Rows))
	}
	idx := t.Index(name)
	if idx < 0 {
		t.Header = append(t.Header, name)
		idx = len(t.Header) - 1
	}
	for i, v := range values {
		for len(t.Rows[i]) <= idx {
			t.Rows[i] = append(t.Rows[i], "")
		}
		t.Rows[i][idx] = FormatCell(v)
	}
	return nil
}

// Write writes the table as CSV.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the table to path.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ParseCell parses a numeric cell; blanks are NaN.
func ParseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// FormatCell renders a number for CSV; NaN is left blank.
func FormatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadLabels reads the overall_01 and band_true columns of a labels CSV.
func ReadLabels(path string) (overall, bands []float64, err error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, nil, fmt.Errorf("labels: %w", err)
	}
	if overall, err = t.Floats("overall_01"); err != nil {
		return nil, nil, fmt.Errorf("labels %s: %w", path, err)
	}
	if bands, err = t.Floats("band_true"); err != nil {
		return nil, nil, fmt.Errorf("labels %s: %w", path, err)
	}
	return overall, bands, nil
}

// ApplyBands adds band_calibrated computed from overall_01.
func ApplyBands(t *Table, c Calibrator) error {
	overall, err := t.Floats("overall_01")
	if err != nil {
		return err
	}
	bands := make([]float64, len(overall))
	for i, x := range overall {
		bands[i] = c.Band(x)
	}
	return t.SetFloats("band_calibrated", bands)
}
