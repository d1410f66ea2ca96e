package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/web/templates"
)

// uploadCompleteEvent is the client event fired after every upload attempt.
const uploadCompleteEvent = "upload-complete"

// uploadResponse is the JSON body returned after an upload attempt.
type uploadResponse struct {
	Message string           `json:"message"`
	Columns []string         `json:"columns"`
	Dataset core.DatasetInfo `json:"dataset"`
	OK      bool             `json:"ok"`
	Error   string           `json:"error,omitempty"`
	Code    string           `json:"code,omitempty"`
}

// base64Upload is the body of POST /api/upload/base64.
type base64Upload struct {
	Filename     string `json:"filename"`
	Contents     string `json:"contents"`
	LastModified int64  `json:"last_modified,omitempty"`
}

// handleUpload decodes a multipart file upload into the current dataset.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, err, formStatus(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.engine.Load(ctx, file, header.Filename)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondUpload(w, r, res)
}

// handleUploadBase64 loads a file sent as a base64 data URL, the shape
// browser upload widgets produce.
func (s *Server) handleUploadBase64(w http.ResponseWriter, r *http.Request) {
	var req base64Upload
	// Base64 inflates the payload by a third.
	if err := decodeJSON(w, r, s.cfg.Upload.MaxFileSize/3*4+maxJSONBody, &req); err != nil {
		s.respondError(w, r, err, formStatus(err))
		return
	}
	if req.Contents == "" {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.engine.LoadDataURL(ctx, req.Contents, req.Filename)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondUpload(w, r, res)
}

// respondUpload writes the upload status. A file that failed to decode is
// still a 200: the widget shows the failure line and the selector empties.
func (s *Server) respondUpload(w http.ResponseWriter, r *http.Request, res core.UploadResult) {
	// The page re-renders its table on this event.
	w.Header().Set("HX-Trigger", uploadCompleteEvent)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.UploadStatus(res).Render(r.Context(), w); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}

	resp := uploadResponse{
		Message: res.Message,
		Columns: res.Columns,
		Dataset: res.Info,
		OK:      res.OK,
	}
	if res.Err != nil {
		msg := core.MapError(res.Err)
		resp.Error = msg.Message
		resp.Code = msg.Code
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleColumns lists the loaded columns for the selector.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Status()
	message := core.NoFileMessage
	if status.Loaded {
		message = core.UploadedMessage(status.Dataset.Filename)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ColumnOptions(s.engine.Columns(), nil).Render(r.Context(), w); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"columns": s.engine.Columns(),
		"dataset": status.Dataset,
		"message": message,
	})
}

// formStatus maps a body parse failure to 413 or 400.
func formStatus(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
