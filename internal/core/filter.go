package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// rowVar exposes the whole row as a map, for column names that are not
// identifiers: row["Unnamed: 2"] != nil.
const rowVar = "row"

// FilterError reports a filter expression that does not compile.
type FilterError struct {
	Expression string
	Err        error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %q: %v", e.Expression, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// Filter keeps the rows of v for which expression is true and returns a new
// View. The expression is expr-lang syntax with each column bound by name,
// e.g. `age >= 30 && city != "Oslo"`. Null cells are nil; a row whose
// evaluation fails, such as comparing a null to a number, is dropped.
//
// The sort directive carries over. Filters stack: filtering a filtered view
// narrows it further and Filter records both expressions. A blank
// expression returns v itself.
func Filter(v *View, expression string) (*View, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" || !v.HasData() {
		return v, nil
	}

	env := make(map[string]any, len(v.Columns)+1)
	for _, c := range v.Columns {
		env[c.Name] = zeroOf(c.Kind)
	}
	env[rowVar] = map[string]any{}

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, &FilterError{Expression: expression, Err: err}
	}

	var keep []int
	row := make(map[string]any, len(v.Columns))
	for r := 0; r < v.RowCount(); r++ {
		for _, c := range v.Columns {
			val := c.Values[r].Interface()
			env[c.Name] = val
			row[c.Name] = val
		}
		env[rowVar] = row

		out, err := expr.Run(program, env)
		if err != nil {
			continue
		}
		if ok, _ := out.(bool); ok {
			keep = append(keep, r)
		}
	}

	cols := make([]Column, len(v.Columns))
	for i, c := range v.Columns {
		values := make([]Value, len(keep))
		for dst, src := range keep {
			values[dst] = c.Values[src]
		}
		cols[i] = Column{Name: c.Name, Kind: c.Kind, Values: values}
	}

	applied := expression
	if v.Filter != "" {
		applied = "(" + v.Filter + ") && (" + expression + ")"
	}
	return &View{Table: Table{Columns: cols}, Sort: v.Sort, Filter: applied}, nil
}

// zeroOf is the value a column of kind k type-checks as.
func zeroOf(k Kind) any {
	switch k {
	case KindNumber:
		return float64(0)
	case KindBool:
		return false
	case KindText:
		return ""
	default:
		return nil
	}
}

// IsFilterError reports whether err is or wraps a *FilterError.
func IsFilterError(err error) bool {
	var fe *FilterError
	return errors.As(err, &fe)
}
