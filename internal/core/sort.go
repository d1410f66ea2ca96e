package core

import (
	"cmp"
	"slices"
)

// Sort re-orders the rows of v by one column and returns a new View.
//
// Rows are stable-sorted ascending using the column's inferred kind: numbers
// numerically, text by code point, false before true. Missing values sort
// after every present value. Descending is the exact reverse of that
// ascending order, so ties come out reversed too.
//
// The directive replaces any sort v already had; a filter carries over.
func Sort(v *View, column string, dir Direction) (*View, error) {
	if !v.HasData() {
		return nil, &UnknownColumnError{Column: column}
	}

	key, ok := v.Column(column)
	if !ok {
		return nil, &UnknownColumnError{Column: column}
	}

	perm := make([]int, v.RowCount())
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		return compareValues(key.Kind, key.Values[a], key.Values[b])
	})
	if dir == Descending {
		slices.Reverse(perm)
	}

	cols := make([]Column, len(v.Columns))
	for i, c := range v.Columns {
		values := make([]Value, len(perm))
		for dst, src := range perm {
			values[dst] = c.Values[src]
		}
		cols[i] = Column{Name: c.Name, Kind: c.Kind, Values: values}
	}

	return &View{
		Table:  Table{Columns: cols},
		Sort:   &SortDirective{Column: column, Direction: dir},
		Filter: v.Filter,
	}, nil
}

// compareValues orders two cells of a column of the given kind.
func compareValues(kind Kind, a, b Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return 1
	case b.IsNull():
		return -1
	}

	switch kind {
	case KindNumber:
		return cmp.Compare(a.Num, b.Num)
	case KindBool:
		return compareBool(a.Bool, b.Bool)
	default:
		return cmp.Compare(a.String(), b.String())
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
