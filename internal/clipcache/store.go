package clipcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when schema.sql changes; old caches must be cleared.
const schemaVersion = 1

// ErrSchemaMismatch indicates the cache was written by an incompatible version.
var ErrSchemaMismatch = errors.New("clip cache schema version mismatch")

// Key identifies a synthesized clip.
type Key struct {
	VoiceID         string
	ModelID         string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool
	Text            string
}

// Hash returns the hex SHA-256 cache key.
func (k Key) Hash() string {
	h := sha256.New()
	for _, part := range []string{
		k.VoiceID,
		k.ModelID,
		k.OutputFormat,
		strconv.FormatFloat(k.Stability, 'g', -1, 64),
		strconv.FormatFloat(k.SimilarityBoost, 'g', -1, 64),
		strconv.FormatFloat(k.Style, 'g', -1, 64),
		strconv.FormatBool(k.SpeakerBoost),
		k.Text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Stats summarizes cache contents.
type Stats struct {
	Path    string
	Entries int64
	Bytes   int64
	Hits    int64
	Oldest  time.Time
	Newest  time.Time
}

// Store is a SQLite-backed clip cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("clip cache: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("clip cache: create directory: %w", err)
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
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'crosstalk cache clear --purge' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
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
	return tx.Commit()
}

// Get returns cached audio for key. ok is false on a miss.
func (s *Store) Get(ctx context.Context, key Key) (audio []byte, ok bool, err error) {
	hash := key.Hash()
	err = s.db.QueryRowContext(ctx, "SELECT audio FROM clips WHERE cache_key = ?", hash).Scan(&audio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("clip cache get: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, "UPDATE clips SET hits = hits + 1, last_used_at = ? WHERE cache_key = ?", now, hash); err != nil {
		return nil, false, fmt.Errorf("clip cache touch: %w", err)
	}
	return audio, true, nil
}

// Put stores audio for key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key Key, audio []byte) error {
	if len(audio) == 0 {
		return errors.New("clip cache put: empty audio")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clips (cache_key, voice_id, model_id, output_format, text, audio, size_bytes, created_at, last_used_at, hits)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
         ON CONFLICT(cache_key) DO UPDATE SET
             audio = excluded.audio,
             size_bytes = excluded.size_bytes,
             last_used_at = excluded.last_used_at`,
		key.Hash(), key.VoiceID, key.ModelID, key.OutputFormat, key.Text,
		audio, len(audio), now, now,
	)
	if err != nil {
		return fmt.Errorf("clip cache put: %w", err)
	}
	return nil
}

// Stats reports entry count, total size, hits and age range.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(size_bytes), 0), COALESCE(SUM(hits), 0), MIN(created_at), MAX(created_at) FROM clips",
	).Scan(&stats.Entries, &stats.Bytes, &stats.Hits, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("clip cache stats: %w", err)
	}
	stats.Oldest = parseTime(oldest)
	stats.Newest = parseTime(newest)
	return stats, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clips")
	if err != nil {
		return 0, fmt.Errorf("clip cache clear: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clip cache clear: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return removed, fmt.Errorf("clip cache vacuum: %w", err)
	}
	return removed, nil
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
