// Package entity defines the view-level data passed between services,
// controllers and templates.
package entity

// GeneralField is the key for form errors that are not tied to one input.
const GeneralField = "general"

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e FieldErrors) Get(field string) string {
	return e[field]
}

// Any reports whether at least one error was recorded.
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// Table is a rendered report: column headings and stringified cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Option is a select box entry.
type Option struct {
	Value int
	Label string
}
