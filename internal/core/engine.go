package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvview/internal/logging"
)

// Upload status lines shown next to the upload widget.
const (
	UploadFailedMessage = "There was an error processing this file."
	NoFileMessage       = "No File Loaded."
	uploadedPrefix      = "File Uploaded: "
)

// UploadedMessage is the status line for a successful upload.
func UploadedMessage(filename string) string {
	return uploadedPrefix + filename
}

// UploadResult is what the upload widget shows after a load attempt.
type UploadResult struct {
	Message string      `json:"message"`
	Columns []string    `json:"columns"`
	Info    DatasetInfo `json:"info"`
	OK      bool        `json:"ok"`
	Err     error       `json:"-"`
}

// UpdateResult is the outcome of one update cycle.
type UpdateResult struct {
	Action  ActionKind
	View    *View
	Summary string
	Columns []ColumnMeta
}

// Status is a snapshot of the engine for health checks.
type Status struct {
	Loaded  bool                `json:"loaded"`
	Dataset DatasetInfo         `json:"dataset"`
	Limiter UploadLimiterStatus `json:"limiter"`
}

// Engine ties the store, decoder and view operations together. It is safe
// for concurrent use.
type Engine struct {
	store   *Store
	limiter *UploadLimiter
	history HistoryRecorder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLimiter bounds concurrent decodes.
func WithLimiter(l *UploadLimiter) EngineOption {
	return func(e *Engine) { e.limiter = l }
}

// WithHistory records every upload attempt.
func WithHistory(h HistoryRecorder) EngineOption {
	return func(e *Engine) { e.history = h }
}

// NewEngine creates an engine over store. A nil store gets a fresh one.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	if store == nil {
		store = NewStore()
	}
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	if e.limiter == nil {
		e.limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
	return e
}

// Store returns the dataset store.
func (e *Engine) Store() *Store { return e.store }

// Limiter returns the decode limiter.
func (e *Engine) Limiter() *UploadLimiter { return e.limiter }

// History returns the upload recorder, or nil.
func (e *Engine) History() HistoryRecorder { return e.history }

// Load decodes r and installs it as the current Dataset.
//
// A decode failure resets the store to empty and is reported through the
// result, never as a returned error. The returned error is non-nil only when
// no decode was attempted (limiter full, context cancelled).
func (e *Engine) Load(ctx context.Context, r io.Reader, filename string) (UploadResult, error) {
	return e.load(ctx, filename, func() (*Dataset, error) {
		return Decode(r, filename)
	})
}

// LoadDataURL is Load for a base64 "data:" URL payload.
func (e *Engine) LoadDataURL(ctx context.Context, contents, filename string) (UploadResult, error) {
	return e.load(ctx, filename, func() (*Dataset, error) {
		return DecodeDataURL(contents, filename)
	})
}

func (e *Engine) load(ctx context.Context, filename string, decode func() (*Dataset, error)) (UploadResult, error) {
	log := logging.WithFields(ctx, "filename", filename)
	start := time.Now()

	var (
		ds        *Dataset
		decodeErr error
	)
	err := e.limiter.Do(ctx, func() error {
		ds, decodeErr = decode()
		return nil
	})
	if err != nil {
		log.Warn("upload rejected", "error", err)
		return UploadResult{}, err
	}

	if decodeErr != nil {
		e.store.Reset()
		log.Warn("upload failed", "error", decodeErr)
		e.record(ctx, newUploadRecord(ctx, uuid.New().String(), filename, nil, decodeErr))
		return UploadResult{
			Message: UploadFailedMessage,
			Columns: []string{},
			Err:     decodeErr,
		}, nil
	}

	e.store.Replace(ds)
	log.Info("upload loaded",
		"dataset_id", ds.Info.ID,
		"rows", ds.Info.Rows,
		"columns", ds.Info.Columns,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.record(ctx, newUploadRecord(ctx, ds.Info.ID, filename, ds, nil))

	return UploadResult{
		Message: UploadedMessage(filename),
		Columns: ds.ColumnNames(),
		Info:    ds.Info,
		OK:      true,
	}, nil
}

// record stores an upload attempt. Failures are logged and swallowed so a
// broken history backend never fails an upload.
func (e *Engine) record(ctx context.Context, rec UploadRecord) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordUpload(ctx, rec); err != nil {
		logging.FromContext(ctx).Error("failed to record upload",
			"upload_id", rec.ID,
			"error", err,
		)
	}
}

// Columns lists the current column names for the selector.
func (e *Engine) Columns() []string {
	return e.store.Columns()
}

// Project builds an unsorted view of the current Dataset.
func (e *Engine) Project(selection []string) (*View, error) {
	ds := e.store.Current()
	if ds.IsEmpty() {
		return nil, ErrEmptyDataset
	}
	return Project(ds.Table, selection)
}

// Update runs one update cycle: resolve the fired triggers to an action and
// apply it. Summary always reflects the current selection.
func (e *Engine) Update(ctx context.Context, c Cycle) (*UpdateResult, error) {
	action := Resolve(c, !e.store.IsEmpty())

	var (
		view *View
		err  error
	)
	switch action.Kind {
	case ActionProject:
		view, err = e.Project(action.Selection)
	case ActionSort:
		view, err = Sort(c.View, action.Sort.Column, action.Sort.Direction)
	case ActionFilter:
		view, err = Filter(c.View, action.Filter)
	case ActionPassthrough:
		view = c.View
	default:
		view = EmptyView()
	}
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("view updated",
		"fired", c.Fired.String(),
		"action", string(action.Kind),
		"rows", view.RowCount(),
		"columns", len(view.Columns),
	)

	return &UpdateResult{
		Action:  action.Kind,
		View:    view,
		Summary: Summary(c.Selection),
		Columns: view.Meta(),
	}, nil
}

// Summary is the selection joined by ", ".
func Summary(selection []string) string {
	return strings.Join(selection, ", ")
}

// Status reports what is loaded and how busy the decoder is.
func (e *Engine) Status() Status {
	ds := e.store.Current()
	return Status{
		Loaded:  !ds.IsEmpty(),
		Dataset: ds.Info,
		Limiter: e.limiter.Status(),
	}
}

// RecentUploads returns upload history, newest first. Without a recorder it
// returns an empty list.
func (e *Engine) RecentUploads(ctx context.Context, limit int) ([]UploadRecord, error) {
	if e.history == nil {
		return []UploadRecord{}, nil
	}
	recs, err := e.history.RecentUploads(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load upload history: %w", err)
	}
	return recs, nil
}
