// Package history stores upload attempts so operators can see what was
// loaded, when, and from where.
//
// Three backends share one interface:
//
//   - memory: a bounded ring kept in process (the default)
//   - postgres: a pgx connection pool, selected by a postgres:// URL
//   - sqlite: a modernc.org/sqlite file, selected by a sqlite:// URL
//
// Use [Open] to pick a backend from configuration.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvview/internal/config"
	"github.com/JonMunkholm/csvview/internal/core"
)

// Store records uploads and lists them newest first.
type Store interface {
	core.HistoryRecorder

	// Backend names the storage kind: "memory", "postgres" or "sqlite".
	Backend() string

	// Close releases connections held by the store.
	Close() error
}

// Open returns the backend selected by cfg.URL. An empty URL keeps history
// in memory, capped at cfg.Limit entries.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	if cfg.URL == "" {
		return NewMemory(cfg.Limit), nil
	}

	scheme, rest, ok := strings.Cut(cfg.URL, "://")
	if !ok {
		return nil, fmt.Errorf("history url %q has no scheme", cfg.URL)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return OpenPostgres(ctx, cfg)
	case "sqlite":
		return OpenSQLite(ctx, rest)
	default:
		return nil, fmt.Errorf("unsupported history backend %q", scheme)
	}
}

// clampLimit keeps listing sizes sane.
func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)
