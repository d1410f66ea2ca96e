package web

import (
	"net/http"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/web/templates"
)

// handlePage renders the full page with whatever the caller last saw.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.id(w, r)
	view, selection := s.sessions.get(id)

	status := s.engine.Status()
	message := core.NoFileMessage
	if status.Loaded {
		message = core.UploadedMessage(status.Dataset.Filename)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.Page(templates.PageData{
		Message:   message,
		Columns:   s.engine.Columns(),
		Selection: selection,
		View:      view,
		Summary:   core.Summary(selection),
	}).Render(r.Context(), w)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// statusResponse is the body of GET /api/status.
type statusResponse struct {
	core.Status
	History  string `json:"history"`
	Sessions int    `json:"sessions"`
}

// handleStatus reports what is loaded, decoder load and session count.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:   s.engine.Status(),
		History:  "none",
		Sessions: s.sessions.len(),
	}
	if b, ok := s.engine.History().(interface{ Backend() string }); ok {
		resp.History = b.Backend()
	}
	writeJSON(w, r, http.StatusOK, resp)
}
