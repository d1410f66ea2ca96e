package core

import "strings"

// Trigger is a UI event that may fire during one update cycle. Several can
// fire at once, so they form a set.
type Trigger uint8

const (
	// TriggerSubmit is the user pressing Submit on the column selector.
	TriggerSubmit Trigger = 1 << iota
	// TriggerSelection is the user changing the selected columns.
	TriggerSelection
	// TriggerSort is the user clicking a column header.
	TriggerSort
	// TriggerRefresh is any unrelated re-render of the table.
	TriggerRefresh
	// TriggerFilter is the user applying a row filter.
	TriggerFilter
)

// Has reports whether t includes every trigger in x.
func (t Trigger) Has(x Trigger) bool {
	return x != 0 && t&x == x
}

// String lists the fired triggers, e.g. "submit|sort".
func (t Trigger) String() string {
	var parts []string
	for _, tn := range []struct {
		t    Trigger
		name string
	}{
		{TriggerSubmit, "submit"},
		{TriggerSelection, "selection"},
		{TriggerSort, "sort"},
		{TriggerRefresh, "refresh"},
		{TriggerFilter, "filter"},
	} {
		if t.Has(tn.t) {
			parts = append(parts, tn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseTrigger maps a trigger name to its flag. Unknown names map to zero.
func ParseTrigger(name string) Trigger {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "submit":
		return TriggerSubmit
	case "selection":
		return TriggerSelection
	case "sort":
		return TriggerSort
	case "refresh":
		return TriggerRefresh
	case "filter":
		return TriggerFilter
	default:
		return 0
	}
}

// Cycle is everything the rendering boundary delivers for one update.
type Cycle struct {
	Fired     Trigger
	Selection []string       // current column selection, in user order
	Sort      *SortDirective // requested sort, if a header was clicked
	Filter    string         // requested row filter expression
	View      *View          // currently rendered view, nil if none
}

// ActionKind is the single action an update cycle resolves to.
type ActionKind string

const (
	ActionProject     ActionKind = "project"
	ActionSort        ActionKind = "sort"
	ActionFilter      ActionKind = "filter"
	ActionPassthrough ActionKind = "passthrough"
	ActionEmpty       ActionKind = "empty"
)

// Action is the resolved action with the inputs it needs.
type Action struct {
	Kind      ActionKind
	Selection []string
	Sort      SortDirective
	Filter    string
}

// Resolve picks exactly one action for a cycle:
//
//	submit fired and a dataset is loaded  -> project (drops any sort)
//	sort fired and a view is shown        -> sort the current view
//	filter fired and a view is shown      -> filter the current view
//	a view is shown                       -> pass it through unchanged
//	otherwise                             -> empty view
//
// Submit strictly dominates sort when both fire in the same cycle, and sort
// dominates filter.
func Resolve(c Cycle, datasetLoaded bool) Action {
	switch {
	case c.Fired.Has(TriggerSubmit) && datasetLoaded:
		return Action{Kind: ActionProject, Selection: c.Selection}
	case c.Fired.Has(TriggerSort) && c.Sort != nil && c.View.HasData():
		return Action{Kind: ActionSort, Sort: *c.Sort}
	case c.Fired.Has(TriggerFilter) && c.View.HasData():
		return Action{Kind: ActionFilter, Filter: c.Filter}
	case c.View.HasData():
		return Action{Kind: ActionPassthrough}
	default:
		return Action{Kind: ActionEmpty}
	}
}
