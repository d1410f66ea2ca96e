package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvview/internal/config"
	"github.com/JonMunkholm/csvview/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS upload_history (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	row_count    INTEGER NOT NULL DEFAULT 0,
	column_count INTEGER NOT NULL DEFAULT 0,
	column_names TEXT[] NOT NULL DEFAULT '{}',
	loaded_at    TIMESTAMPTZ NOT NULL,
	ok           BOOLEAN NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	client_ip    TEXT NOT NULL DEFAULT '',
	user_agent   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS upload_history_loaded_at_idx ON upload_history (loaded_at DESC);
`

const (
	insertUploadSQL = `
INSERT INTO upload_history
	(id, filename, row_count, column_count, column_names, loaded_at, ok, error, client_ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`

	recentUploadsSQL = `
SELECT id, filename, row_count, column_count, column_names, loaded_at, ok, error, client_ip, user_agent
FROM upload_history
ORDER BY loaded_at DESC
LIMIT $1`
)

// Postgres stores history in a PostgreSQL table.
type Postgres struct {
	pool  *pgxpool.Pool
	limit int
}

// OpenPostgres connects, verifies the connection and creates the table if
// needed.
func OpenPostgres(ctx context.Context, cfg config.HistoryConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &Postgres{pool: pool, limit: clampLimit(cfg.Limit, defaultListLimit)}, nil
}

func (p *Postgres) Backend() string { return "postgres" }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) RecordUpload(ctx context.Context, rec core.UploadRecord) error {
	names := rec.ColumnNames
	if names == nil {
		names = []string{}
	}

	_, err := p.pool.Exec(ctx, insertUploadSQL,
		rec.ID, rec.Filename, rec.Rows, rec.Columns, names,
		rec.LoadedAt, rec.OK, rec.Error, rec.ClientIP, rec.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) RecentUploads(ctx context.Context, limit int) ([]core.UploadRecord, error) {
	rows, err := p.pool.Query(ctx, recentUploadsSQL, clampLimit(limit, p.limit))
	if err != nil {
		return nil, fmt.Errorf("query upload history: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.UploadRecord, error) {
		var r core.UploadRecord
		err := row.Scan(
			&r.ID, &r.Filename, &r.Rows, &r.Columns, &r.ColumnNames,
			&r.LoadedAt, &r.OK, &r.Error, &r.ClientIP, &r.UserAgent,
		)
		r.LoadedAt = r.LoadedAt.UTC()
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan upload history: %w", err)
	}
	return recs, nil
}
