package history

import (
	"context"
	"slices"
	"sync"

	"github.com/JonMunkholm/csvview/internal/core"
)

// Memory keeps the most recent uploads in a fixed-size ring.
type Memory struct {
	mu      sync.RWMutex
	records []core.UploadRecord
	next    int
	full    bool
}

// NewMemory keeps at most capacity records. Non-positive means the default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultListLimit
	}
	return &Memory{records: make([]core.UploadRecord, capacity)}
}

func (m *Memory) Backend() string { return "memory" }

func (m *Memory) Close() error { return nil }

// RecordUpload stores rec, overwriting the oldest entry when full.
func (m *Memory) RecordUpload(_ context.Context, rec core.UploadRecord) error {
	rec.ColumnNames = slices.Clone(rec.ColumnNames)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[m.next] = rec
	m.next = (m.next + 1) % len(m.records)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// RecentUploads returns up to limit records, newest first.
func (m *Memory) RecentUploads(_ context.Context, limit int) ([]core.UploadRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.records)
	}
	limit = clampLimit(limit, defaultListLimit)
	if limit > size {
		limit = size
	}

	out := make([]core.UploadRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.records)) % len(m.records)
		out = append(out, m.records[idx])
	}
	return out, nil
}
