package sheet

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrMissingSheet  = errors.New("sheet not found in payload")
	ErrMissingColumn = errors.New("required column missing")
	ErrBadHeader     = errors.New("malformed column header")
	ErrRaggedColumns = errors.New("columns have different lengths")
	ErrBadCell       = errors.New("cell cannot be parsed")
)

type column struct {
	typ    string
	values []string
}

// Table is one sheet of the payload. The backend stores sheets column
// major: each "field:type" header maps to the cells of that column.
type Table struct {
	name    string
	columns map[string]column
	rows    int
}

func newTable(name string, raw map[string][]string) (*Table, error) {
	t := &Table{name: name, columns: make(map[string]column, len(raw)), rows: -1}

	headers := make([]string, 0, len(raw))
	for h := range raw {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	var errs []error
	for _, h := range headers {
		compact := strings.ReplaceAll(h, " ", "")
		field, typ, ok := strings.Cut(compact, ":")
		if !ok || field == "" || typ == "" {
			errs = append(errs, fmt.Errorf("%w: %s: %q", ErrBadHeader, name, h))
			continue
		}
		values := raw[h]
		if t.rows == -1 {
			t.rows = len(values)
		} else if len(values) != t.rows {
			errs = append(errs, fmt.Errorf("%w: %s: column %q has %d rows, want %d",
				ErrRaggedColumns, name, field, len(values), t.rows))
			continue
		}
		t.columns[field] = column{typ: strings.ToLower(typ), values: values}
	}
	if t.rows == -1 {
		t.rows = 0
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func (t *Table) Name() string { return t.name }

// Rows returns the number of data rows.
func (t *Table) Rows() int { return t.rows }

// Has reports whether the table has a column named field.
func (t *Table) Has(field string) bool {
	_, ok := t.columns[field]
	return ok
}

// Columns returns "field:type" for every column, sorted by field.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.columns))
	for f, c := range t.columns {
		out = append(out, f+":"+c.typ)
	}
	sort.Strings(out)
	return out
}

// Require checks that every field is present.
func (t *Table) Require(fields ...string) error {
	var errs []error
	for _, f := range fields {
		if !t.Has(f) {
			errs = append(errs, fmt.Errorf("%w: %s.%s", ErrMissingColumn, t.name, f))
		}
	}
	return errors.Join(errs...)
}

func (t *Table) cell(field string, row int) (string, bool) {
	c, ok := t.columns[field]
	if !ok || row < 0 || row >= len(c.values) {
		return "", false
	}
	return strings.TrimSpace(c.values[row]), true
}

// String returns the raw cell, or "" for a missing column.
func (t *Table) String(field string, row int) string {
	v, _ := t.cell(field, row)
	return v
}

// Int parses an integer cell. A missing column or empty cell is def.
func (t *Table) Int(field string, row int, def int) (int, error) {
	v, ok := t.cell(field, row)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, t.cellErr(field, row, v, err)
	}
	return n, nil
}

// Bool parses a boolean cell. A missing column or empty cell is def.
func (t *Table) Bool(field string, row int, def bool) (bool, error) {
	v, ok := t.cell(field, row)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def, t.cellErr(field, row, v, err)
	}
	return b, nil
}

// IntList parses a list cell written as "1,2" or "[1, 2]". An empty cell
// is an empty list.
func (t *Table) IntList(field string, row int) ([]int, error) {
	v, ok := t.cell(field, row)
	if !ok {
		return nil, nil
	}
	v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, t.cellErr(field, row, v, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (t *Table) cellErr(field string, row int, value string, err error) error {
	return fmt.Errorf("%w: %s row %d column %q value %q: %w", ErrBadCell, t.name, row, field, value, err)
}
