package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. The cache is disposable,
// so a mismatched database is dropped and recreated.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// ProbeCache memoizes media durations.
type ProbeCache struct {
	db   *sql.DB
	path string
}

// OpenProbeCache opens (creating if needed) the cache database at path.
func OpenProbeCache(path string) (*ProbeCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &ProbeCache{db: db, path: path}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Path returns the database location.
func (c *ProbeCache) Path() string {
	return c.path
}

// Close closes the underlying database connection.
func (c *ProbeCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached duration for path when size and modTime still match.
func (c *ProbeCache) Lookup(ctx context.Context, path string, size int64, modTime time.Time) (time.Duration, bool, error) {
	var (
		cachedSize int64
		cachedMod  int64
		durationMS int64
	)
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx,
			"SELECT size_bytes, mod_time_ns, duration_ms FROM probe_durations WHERE path = ?", path,
		).Scan(&cachedSize, &cachedMod, &durationMS)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup duration: %w", err)
	}
	if cachedSize != size || cachedMod != modTime.UnixNano() {
		return 0, false, nil
	}
	return time.Duration(durationMS) * time.Millisecond, true, nil
}

// Store records the duration probed for path at the given size and modTime.
func (c *ProbeCache) Store(ctx context.Context, path string, size int64, modTime time.Time, duration time.Duration) error {
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx, `INSERT INTO probe_durations (path, size_bytes, mod_time_ns, duration_ms, probed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
    size_bytes = excluded.size_bytes,
    mod_time_ns = excluded.mod_time_ns,
    duration_ms = excluded.duration_ms,
    probed_at = excluded.probed_at`,
			path, size, modTime.UnixNano(), duration.Milliseconds(), time.Now().UTC().Format(time.RFC3339))
		return err
	})
}

// Prune deletes rows whose path is not in keep.
func (c *ProbeCache) Prune(ctx context.Context, keep []string) (int64, error) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		keepSet[path] = struct{}{}
	}
	rows, err := c.db.QueryContext(ctx, "SELECT path FROM probe_durations")
	if err != nil {
		return 0, fmt.Errorf("list cached paths: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			_ = rows.Close()
			return 0, err
		}
		if _, ok := keepSet[path]; !ok {
			stale = append(stale, path)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var removed int64
	for _, path := range stale {
		err := retryOnBusy(ctx, func() error {
			res, execErr := c.db.ExecContext(ctx, "DELETE FROM probe_durations WHERE path = ?", path)
			if execErr != nil {
				return execErr
			}
			n, _ := res.RowsAffected()
			removed += n
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", path, err)
		}
	}
	return removed, nil
}

func (c *ProbeCache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return c.createSchema(ctx)
	}

	var version int
	if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	for _, stmt := range []string{"DROP TABLE IF EXISTS probe_durations", "DROP TABLE IF EXISTS schema_version"} {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset cache schema: %w", err)
		}
	}
	return c.createSchema(ctx)
}

func (c *ProbeCache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
