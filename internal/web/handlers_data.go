package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/logging"
	"github.com/JonMunkholm/csvview/internal/web/templates"
)

// handleExport downloads the caller's current view.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	view, _ := s.sessions.get(s.sessions.id(w, r))

	// Buffer so an encoding failure can still become an error response.
	var buf bytes.Buffer
	if err := core.Export(&buf, view, format); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	filename := exportFilename(s.engine.Status().Dataset.Filename, format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "format", format, "error", err)
	}
}

// handleHistory lists recent upload attempts, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", s.cfg.History.Limit)

	uploads, err := s.engine.RecentUploads(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.HistoryTable(uploads).Render(r.Context(), w); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"uploads": uploads})
}
