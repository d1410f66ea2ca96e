package core

// convert.go provides scalar coercion for decoded cells.
//
// Every cell arrives as text (CSV field or formatted spreadsheet cell) and is
// classified as missing, boolean, numeric or free text. A column's kind is
// narrowed while rows stream in, so no second pass over the raw file is needed:
//
//	null -> bool | number -> text
//
// Once a column has seen two incompatible kinds it is text for good.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// naTokens are the cell spellings treated as missing values.
var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
}

// IsNA reports whether s spells a missing value.
func IsNA(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// ParseBool accepts True/False in lower, title and upper case.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	default:
		return false, false
	}
}

// ParseNumber parses a plain decimal or scientific number.
// Currency symbols and thousands separators are not accepted.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// InferKind classifies a single raw cell.
func InferKind(s string) Kind {
	if IsNA(s) {
		return KindNull
	}
	if _, ok := ParseBool(s); ok {
		return KindBool
	}
	if _, ok := ParseNumber(s); ok {
		return KindNumber
	}
	return KindText
}

// widenKind merges the kind seen so far with the kind of a new cell.
func widenKind(current, next Kind) Kind {
	switch {
	case next == KindNull || current == next:
		return current
	case current == KindNull:
		return next
	default:
		return KindText
	}
}

// ConvertCell converts raw text to a Value of the given column kind.
// Missing values are Null regardless of kind.
func ConvertCell(s string, kind Kind) Value {
	if IsNA(s) {
		return Null
	}
	switch kind {
	case KindBool:
		if b, ok := ParseBool(s); ok {
			return BoolValue(b)
		}
	case KindNumber:
		if f, ok := ParseNumber(s); ok {
			return NumberValue(f)
		}
	case KindNull:
		return Null
	}
	return TextValue(s)
}

// columnBuilder accumulates raw cells for one column and tracks its kind.
type columnBuilder struct {
	name string
	kind Kind
	raw  []string
}

func newColumnBuilder(name string, rows int) *columnBuilder {
	b := &columnBuilder{name: name}
	b.padTo(rows)
	return b
}

func (b *columnBuilder) add(s string) {
	b.kind = widenKind(b.kind, InferKind(s))
	b.raw = append(b.raw, s)
}

// padTo appends missing values until the column has n cells.
func (b *columnBuilder) padTo(n int) {
	for len(b.raw) < n {
		b.raw = append(b.raw, "")
	}
}

// build converts the raw cells once the final kind is known.
// The raw slice is released as it is consumed.
func (b *columnBuilder) build() Column {
	values := make([]Value, len(b.raw))
	for i, s := range b.raw {
		values[i] = ConvertCell(s, b.kind)
	}
	b.raw = nil
	return Column{Name: b.name, Kind: b.kind, Values: values}
}

// UniqueColumnNames fills blank header cells with "Unnamed: <i>" and
// de-duplicates repeated names with ".1", ".2" suffixes.
func UniqueColumnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for taken[candidate] {
			seen[name]++
			candidate = name + "." + strconv.Itoa(seen[name])
		}
		taken[candidate] = true
		names[i] = candidate
	}
	return names
}
