package core

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred scalar type of a column or cell.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
)

// String returns the lowercase name used in column metadata.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single scalar cell. Kind is KindNull for missing values.
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
	Str  string
}

// Null is the missing-value cell.
var Null = Value{Kind: KindNull}

// NumberValue wraps a float64.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// TextValue wraps a string.
func TextValue(s string) Value { return Value{Kind: KindText, Str: s} }

// IsNull reports whether the cell holds no value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String formats the cell for display and CSV export. Null renders empty.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindText:
		return v.Str
	default:
		return ""
	}
}

// Interface returns the cell as a JSON-friendly Go value.
func (v Value) Interface() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindText:
		return v.Str
	default:
		return nil
	}
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Table is the shared columnar shape of a Dataset and a View.
// Every column has the same length.
type Table struct {
	Columns []Column
}

// ColumnNames returns the names in table order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// RowCount returns the number of rows (zero when there are no columns).
func (t Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Column looks up a column by exact name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Records returns the rows as name->value maps, the shape a data grid consumes.
func (t Table) Records() []map[string]any {
	n := t.RowCount()
	out := make([]map[string]any, n)
	for r := 0; r < n; r++ {
		rec := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			rec[c.Name] = c.Values[r].Interface()
		}
		out[r] = rec
	}
	return out
}

// Dataset is the full table decoded from the most recent upload.
type Dataset struct {
	Table
	Info DatasetInfo
}

// DatasetInfo is the provenance of a Dataset.
type DatasetInfo struct {
	ID       string    `json:"id,omitempty"`
	Filename string    `json:"filename"`
	LoadedAt time.Time `json:"loaded_at"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
}

// IsEmpty reports whether the dataset has no columns.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Columns) == 0
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending" in any
// case. Anything else is ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// SortDirective is the single active sort of a View.
type SortDirective struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// View is a projected and possibly sorted rendering of a Dataset.
// Views are replaced wholesale, never edited in place.
type View struct {
	Table
	Sort   *SortDirective
	Filter string // expression the rows were narrowed by, if any
}

// EmptyView returns a view with zero columns and zero rows.
func EmptyView() *View {
	return &View{}
}

// HasData reports whether the view has any columns.
func (v *View) HasData() bool {
	return v != nil && len(v.Columns) > 0
}

// ColumnMeta describes a column for rendering.
type ColumnMeta struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Meta returns render metadata for each column.
func (t Table) Meta() []ColumnMeta {
	meta := make([]ColumnMeta, len(t.Columns))
	for i, c := range t.Columns {
		meta[i] = ColumnMeta{Name: c.Name, ID: c.Name, Type: c.Kind.String()}
	}
	return meta
}
