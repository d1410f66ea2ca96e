package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/csvview/internal/core"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLite stores history in a local database file. Timestamps are unix
// nanoseconds and column names a JSON array.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" works for
// tests.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite history needs a file path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// One writer at a time avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Backend() string { return "sqlite" }

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) RecordUpload(ctx context.Context, rec core.UploadRecord) error {
	names := rec.ColumnNames
	if names == nil {
		names = []string{}
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode column names: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO upload_history
	(id, filename, row_count, column_count, column_names, loaded_at, ok, error, client_ip, user_agent)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.Rows, rec.Columns, string(encoded),
		rec.LoadedAt.UnixNano(), rec.OK, rec.Error, rec.ClientIP, rec.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLite) RecentUploads(ctx context.Context, limit int) ([]core.UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, filename, row_count, column_count, column_names, loaded_at, ok, error, client_ip, user_agent
FROM upload_history
ORDER BY loaded_at DESC
LIMIT ?`, clampLimit(limit, defaultListLimit))
	if err != nil {
		return nil, fmt.Errorf("query upload history: %w", err)
	}
	defer rows.Close()

	recs := []core.UploadRecord{}
	for rows.Next() {
		var (
			r        core.UploadRecord
			names    string
			loadedAt int64
		)
		if err := rows.Scan(
			&r.ID, &r.Filename, &r.Rows, &r.Columns, &names,
			&loadedAt, &r.OK, &r.Error, &r.ClientIP, &r.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("scan upload history: %w", err)
		}
		if err := json.Unmarshal([]byte(names), &r.ColumnNames); err != nil {
			return nil, fmt.Errorf("decode column names for %s: %w", r.ID, err)
		}
		r.LoadedAt = time.Unix(0, loadedAt).UTC()
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
