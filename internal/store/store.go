// Package store persists the translation cache and job checkpoints in a
// local SQLite database so repeated runs over overlapping catalogs avoid
// redundant backend calls and interrupted jobs can resume.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite allows a single writer; funnel all access through
	// one connection so concurrent workers serialize instead of failing
	// with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		key TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		provider TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 0,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- job_checkpoints tracks per-job progress for resume support
	CREATE TABLE IF NOT EXISTS job_checkpoints (
		job_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		output_path TEXT NOT NULL,
		catalog_digest TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		provider TEXT NOT NULL,
		completed_count INTEGER NOT NULL DEFAULT 0,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_translations_lookup ON translations(target_lang, provider);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Key returns the content-addressed cache key for one lookup. Caching is
// backend-scoped: the same source text translated by different providers
// yields different, non-interchangeable entries.
func Key(sourceText, targetLang, providerName string) string {
	h := sha256.New()
	h.Write([]byte(normalizeText(sourceText)))
	h.Write([]byte{0})
	h.Write([]byte(targetLang))
	h.Write([]byte{0})
	h.Write([]byte(providerName))
	return hex.EncodeToString(h.Sum(nil))
}

// JobID derives the stable checkpoint identifier for a job from its
// output destination, so re-running the same job resumes it.
func JobID(outputPath string) string {
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		abs = outputPath
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:8])
}

// GetCached looks up a previously obtained translation. A miss returns
// ("", false, nil).
func (s *Store) GetCached(ctx context.Context, sourceText, targetLang, providerName string) (string, bool, error) {
	key := Key(sourceText, targetLang, providerName)

	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translations WHERE key = ?`, key).Scan(&translated)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, _ = s.db.ExecContext(ctx,
		`UPDATE translations SET usage_count = usage_count + 1, last_used = ? WHERE key = ?`,
		time.Now(), key)

	return translated, true, nil
}

// SaveTranslation records a translation under its content-addressed key.
// Entries are append-only from the engine's point of view; re-putting the
// same key just refreshes the stored text.
func (s *Store) SaveTranslation(ctx context.Context, sourceText, targetLang, providerName, translated string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translations (key, source_text, target_lang, provider, translated_text, usage_count, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		Key(sourceText, targetLang, providerName), normalizeText(sourceText), targetLang, providerName, translated, time.Now(), time.Now())
	return err
}

// Checkpoint is the durable progress record of one job.
type Checkpoint struct {
	JobID          string
	RunID          string
	OutputPath     string
	CatalogDigest  string
	TargetLang     string
	Provider       string
	CompletedCount int
	Status         string
	UpdatedAt      time.Time
}

// LoadCheckpoint returns the checkpoint for jobID, or nil when none has
// been recorded.
func (s *Store) LoadCheckpoint(ctx context.Context, jobID string) (*Checkpoint, error) {
	var cp Checkpoint
	err := s.db.QueryRowContext(ctx,
		`SELECT job_id, run_id, output_path, catalog_digest, target_lang, provider, completed_count, status, updated_at
		 FROM job_checkpoints WHERE job_id = ?`, jobID).
		Scan(&cp.JobID, &cp.RunID, &cp.OutputPath, &cp.CatalogDigest, &cp.TargetLang, &cp.Provider, &cp.CompletedCount, &cp.Status, &cp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// SaveCheckpoint overwrites the checkpoint for cp.JobID.
func (s *Store) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO job_checkpoints
		 (job_id, run_id, output_path, catalog_digest, target_lang, provider, completed_count, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cp.JobID, cp.RunID, cp.OutputPath, cp.CatalogDigest, cp.TargetLang, cp.Provider, cp.CompletedCount, cp.Status, time.Now())
	return err
}

// CompleteCheckpoint marks a job's checkpoint as completed.
func (s *Store) CompleteCheckpoint(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE job_checkpoints SET status = 'completed', updated_at = ? WHERE job_id = ?`,
		time.Now(), jobID)
	return err
}

// DeleteCheckpoint removes a job's checkpoint entirely.
func (s *Store) DeleteCheckpoint(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM job_checkpoints WHERE job_id = ?`, jobID)
	return err
}

// CacheEntry is a row from the translations table.
type CacheEntry struct {
	Key        string
	SourceText string
	TargetLang string
	Provider   string
	Translated string
	UsageCount int
	LastUsed   time.Time
}

// CacheStats summarises cache usage.
type CacheStats struct {
	TotalEntries int
	TotalUsage   int
	Providers    int
}

// ListCache returns all cache entries ordered by most recently used.
func (s *Store) ListCache(ctx context.Context) ([]CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, source_text, target_lang, provider, translated_text, usage_count, last_used
		 FROM translations ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.Key, &e.SourceText, &e.TargetLang, &e.Provider, &e.Translated, &e.UsageCount, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// Stats returns summary statistics for the translation cache.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(usage_count), 0), COUNT(DISTINCT provider)
		FROM translations`).
		Scan(&stats.TotalEntries, &stats.TotalUsage, &stats.Providers)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteEntry permanently removes a cache entry by key.
func (s *Store) DeleteEntry(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE key = ?`, key)
	return err
}

// ClearCache removes all cache entries.
func (s *Store) ClearCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translations`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
