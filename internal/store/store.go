package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"convolens/internal/config"
)

// ErrNotFound reports that a key is absent or its TTL deadline has passed.
// Callers must treat both conditions identically.
var ErrNotFound = errors.New("store: key not found")

// Store is a TTL-bound key/value store backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the state database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	return s.path
}

// Put writes a value with a fresh TTL deadline, replacing any prior value.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("store: key must not be empty")
	}
	if ttl <= 0 {
		return errors.New("store: ttl must be positive")
	}
	deadline := s.now().Add(ttl).UnixNano()
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO store_entries (key, value, expires_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, deadline,
	); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Get returns the live value for a key. Expired and missing keys both
// return ErrNotFound; the dead row is removed lazily.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx = ensureContext(ctx)
	var (
		value    []byte
		deadline int64
	)
	row := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM store_entries WHERE key = ?`, key)
	if err := row.Scan(&value, &deadline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	if deadline <= s.now().UnixNano() {
		_ = s.execWithoutResultRetry(ctx, `DELETE FROM store_entries WHERE key = ? AND expires_at = ?`, key, deadline)
		return nil, ErrNotFound
	}
	return value, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM store_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Scan returns the live values under a key prefix, filtered by an optional
// predicate. Result order is unspecified; the working set is bounded by
// TTL churn, so no secondary index is maintained.
func (s *Store) Scan(ctx context.Context, prefix string, predicate func(value []byte) bool) ([][]byte, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT value FROM store_entries WHERE key >= ? AND key < ? AND expires_at > ?`,
		prefix, prefixUpperBound(prefix), s.now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", prefix, err)
	}
	defer rows.Close()

	var values [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		if predicate != nil && !predicate(value) {
			continue
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// CompareAndSet atomically replaces a key's value only when the stored
// bytes match expected and the key is still live. A false return signals a
// conflicting concurrent transition; callers must not retry-and-overwrite.
// The TTL deadline is left untouched.
func (s *Store) CompareAndSet(ctx context.Context, key string, expected, newValue []byte) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE store_entries SET value = ? WHERE key = ? AND value = ? AND expires_at > ?`,
		newValue, key, expected, s.now().UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("compare-and-set %q: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// Touch refreshes a live key's TTL deadline. Used only on re-submission;
// reads never extend a key's lifetime.
func (s *Store) Touch(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errors.New("store: ttl must be positive")
	}
	now := s.now()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE store_entries SET expires_at = ? WHERE key = ? AND expires_at > ?`,
		now.Add(ttl).UnixNano(), key, now.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("touch %q: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// SweepExpired purges rows whose deadline has passed and reports the count.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM store_entries WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sweep expired: %w", err)
	}
	return res.RowsAffected()
}

// prefixUpperBound returns the smallest key strictly greater than every key
// carrying the prefix, for use in a range comparison.
func prefixUpperBound(prefix string) string {
	buf := []byte(prefix)
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] < 0xff {
			buf[i]++
			return string(buf[:i+1])
		}
	}
	return string(append(buf, 0xff))
}
