package records

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIndexOutOfRange is returned when a row position does not exist.
var ErrIndexOutOfRange = errors.New("record index out of range")

// TimeLayout formats the Created On and Last Modified columns.
const TimeLayout = "2006-01-02 15:04:05"

// Record holds one value per Field. The zero value is a record with every
// field empty.
type Record struct {
	values [numFields]string
}

// Get returns the value of f, or "" for an unknown field.
func (r Record) Get(f Field) string {
	if f < 0 || f >= numFields {
		return ""
	}
	return r.values[f]
}

// Set assigns the value of f. Unknown fields are ignored.
func (r *Record) Set(f Field, v string) {
	if f < 0 || f >= numFields {
		return
	}
	r.values[f] = v
}

// Values returns the cells in AllFields order.
func (r Record) Values() []string {
	out := make([]string, numFields)
	copy(out, r.values[:])
	return out
}

// Contains reports whether any field contains needle. needle must already be
// lower case.
func (r Record) Contains(needle string) bool {
	for _, v := range r.values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// IndexedRecord is a record annotated with its absolute table position.
type IndexedRecord struct {
	Index int
	Record
}

// Table is the ordered, position-addressed sequence of records.
type Table struct {
	rows []Record
}

// NewTable returns a table holding rows.
func NewTable(rows ...Record) *Table {
	return &Table{rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of all rows.
func (t *Table) Rows() []Record {
	out := make([]Record, len(t.rows))
	copy(out, t.rows)
	return out
}

// Row returns the record at position i.
func (t *Table) Row(i int) (Record, error) {
	if err := t.check(i); err != nil {
		return Record{}, err
	}
	return t.rows[i], nil
}

// Append adds rec at the end and returns its position.
func (t *Table) Append(rec Record) int {
	t.rows = append(t.rows, rec)
	return len(t.rows) - 1
}

// Replace overwrites the row at position i.
func (t *Table) Replace(i int, rec Record) error {
	if err := t.check(i); err != nil {
		return err
	}
	t.rows[i] = rec
	return nil
}

// Remove deletes the row at position i; later rows move down by one.
func (t *Table) Remove(i int) (Record, error) {
	if err := t.check(i); err != nil {
		return Record{}, err
	}
	removed := t.rows[i]
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return removed, nil
}

func (t *Table) check(i int) error {
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("%w: %d (table has %d rows)", ErrIndexOutOfRange, i, len(t.rows))
	}
	return nil
}

// PageCount returns the number of pages of size perPage, never less than one.
func (t *Table) PageCount(perPage int) int {
	if perPage <= 0 {
		return 1
	}
	pages := (len(t.rows) + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

// Page returns the rows of the 1-based page. Pages outside the table yield
// an empty slice.
func (t *Table) Page(page, perPage int) []IndexedRecord {
	if page < 1 || perPage <= 0 {
		return []IndexedRecord{}
	}
	start := (page - 1) * perPage
	if start >= len(t.rows) {
		return []IndexedRecord{}
	}
	stop := min(start+perPage, len(t.rows))
	out := make([]IndexedRecord, 0, stop-start)
	for i := start; i < stop; i++ {
		out = append(out, IndexedRecord{Index: i, Record: t.rows[i]})
	}
	return out
}

// Search returns every row where some field contains keyword, ignoring case.
// An empty keyword performs no search and returns nil; a search with no
// matches returns an empty, non-nil slice.
func (t *Table) Search(keyword string) []IndexedRecord {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}
	out := []IndexedRecord{}
	for i, rec := range t.rows {
		if rec.Contains(needle) {
			out = append(out, IndexedRecord{Index: i, Record: rec})
		}
	}
	return out
}
