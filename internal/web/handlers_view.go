package web

import (
	"errors"
	"mime"
	"net/http"
	"slices"
	"strconv"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/web/templates"
)

// viewRequest is one update cycle as sent by the page. Flags and Fired may
// be combined; when several triggers fire together the engine decides which
// wins.
type viewRequest struct {
	Submit           bool                `json:"submit"`
	SelectionChanged bool                `json:"selection_changed"`
	Refresh          bool                `json:"refresh"`
	Fired            []string            `json:"fired,omitempty"`
	Selection        []string            `json:"selection"`
	Sort             *core.SortDirective `json:"sort,omitempty"`
	Filter           *string             `json:"filter,omitempty"`
}

// viewResponse is the rendered view as JSON.
type viewResponse struct {
	Action   core.ActionKind     `json:"action"`
	Summary  string              `json:"summary"`
	Columns  []core.ColumnMeta   `json:"columns"`
	Rows     []map[string]any    `json:"rows"`
	RowCount int                 `json:"row_count"`
	Sort     *core.SortDirective `json:"sort"`
	Filter   string              `json:"filter,omitempty"`
}

func (req viewRequest) fired() core.Trigger {
	var t core.Trigger
	if req.Submit {
		t |= core.TriggerSubmit
	}
	if req.SelectionChanged {
		t |= core.TriggerSelection
	}
	if req.Refresh {
		t |= core.TriggerRefresh
	}
	if req.Sort != nil && req.Sort.Column != "" {
		t |= core.TriggerSort
	}
	if req.Filter != nil {
		t |= core.TriggerFilter
	}
	for _, name := range req.Fired {
		t |= core.ParseTrigger(name)
	}
	return t
}

// handleView runs one update cycle against the caller's current view and
// stores the result as their new current view.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	req, err := decodeViewRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, formStatus(err))
		return
	}

	id := s.sessions.id(w, r)
	current, prevSelection := s.sessions.get(id)
	if current == nil {
		current = core.EmptyView()
	}
	selection := req.Selection
	if selection == nil {
		selection = prevSelection
	}

	var sort *core.SortDirective
	if req.Sort != nil {
		sort = &core.SortDirective{
			Column:    req.Sort.Column,
			Direction: core.ParseDirection(string(req.Sort.Direction)),
		}
	}

	var filter string
	if req.Filter != nil {
		filter = *req.Filter
	}

	res, err := s.engine.Update(r.Context(), core.Cycle{
		Fired:     req.fired(),
		Selection: selection,
		Sort:      sort,
		Filter:    filter,
		View:      current,
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.sessions.put(id, res.View, selection)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ViewTable(res.View, res.Summary).Render(r.Context(), w); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, r, http.StatusOK, viewResponse{
		Action:   res.Action,
		Summary:  res.Summary,
		Columns:  res.Columns,
		Rows:     res.View.Records(),
		RowCount: res.View.RowCount(),
		Sort:     res.View.Sort,
		Filter:   res.View.Filter,
	})
}

// decodeViewRequest reads a cycle from either a JSON body or the
// form-encoded body htmx posts. In a form an absent selection means nothing
// is selected, and the filter field only counts when "filter" is among the
// fired triggers.
func decodeViewRequest(w http.ResponseWriter, r *http.Request) (viewRequest, error) {
	var req viewRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/x-www-form-urlencoded" && ct != "multipart/form-data" {
		err := decodeJSON(w, r, maxJSONBody, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return req, err
	}

	req.Submit = formBool(r, "submit")
	req.SelectionChanged = formBool(r, "selection_changed")
	req.Refresh = formBool(r, "refresh")
	req.Fired = r.PostForm["fired"]
	req.Selection = r.PostForm["selection"]
	if req.Selection == nil {
		req.Selection = []string{}
	}
	if col := r.PostFormValue("sort_column"); col != "" {
		req.Sort = &core.SortDirective{
			Column:    col,
			Direction: core.Direction(r.PostFormValue("sort_direction")),
		}
	}
	if slices.ContainsFunc(req.Fired, func(name string) bool { return core.ParseTrigger(name) == core.TriggerFilter }) {
		filter := r.PostFormValue("filter")
		req.Filter = &filter
	}
	return req, nil
}

// formBool reads a checkbox-style flag: "true", "1" or "on".
func formBool(r *http.Request, name string) bool {
	v := r.PostFormValue(name)
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
