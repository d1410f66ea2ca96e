package core

import (
	"context"
	"time"
)

// UploadRecord is one upload attempt, successful or not.
type UploadRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	ColumnNames []string  `json:"column_names"`
	LoadedAt    time.Time `json:"loaded_at"`
	OK          bool      `json:"ok"`
	Error       string    `json:"error,omitempty"`
	ClientIP    string    `json:"client_ip,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

// HistoryRecorder stores upload attempts. Implementations live in the
// history package.
type HistoryRecorder interface {
	RecordUpload(ctx context.Context, rec UploadRecord) error
	RecentUploads(ctx context.Context, limit int) ([]UploadRecord, error)
}

// newUploadRecord builds the history entry for an upload attempt.
func newUploadRecord(ctx context.Context, id, filename string, ds *Dataset, err error) UploadRecord {
	rec := UploadRecord{
		ID:        id,
		Filename:  filename,
		LoadedAt:  time.Now().UTC(),
		OK:        err == nil,
		ClientIP:  ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
	}
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	rec.Rows = ds.Info.Rows
	rec.Columns = ds.Info.Columns
	rec.ColumnNames = ds.ColumnNames()
	rec.LoadedAt = ds.Info.LoadedAt.UTC()
	return rec
}
