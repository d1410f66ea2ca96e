package core

// Project narrows a table to the selected columns, in selection order, with
// every row kept in its original order. An empty selection yields the empty
// View. Naming a column the table does not have is an UnknownColumnError;
// naming one twice is a DuplicateColumnError, since view columns are keyed
// by name.
//
// Column value slices are shared with the source; tables are never mutated
// in place, so the sharing is safe.
func Project(src Table, selection []string) (*View, error) {
	if len(selection) == 0 {
		return EmptyView(), nil
	}

	index := make(map[string]int, len(src.Columns))
	for i, c := range src.Columns {
		index[c.Name] = i
	}

	seen := make(map[string]bool, len(selection))
	cols := make([]Column, len(selection))
	for i, name := range selection {
		idx, ok := index[name]
		if !ok {
			return nil, &UnknownColumnError{Column: name}
		}
		if seen[name] {
			return nil, &DuplicateColumnError{Column: name}
		}
		seen[name] = true
		cols[i] = src.Columns[idx]
	}

	return &View{Table: Table{Columns: cols}}, nil
}
