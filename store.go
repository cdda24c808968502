package sanitypress

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/sanitypress/content"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a slug.
var ErrSnapshotNotFound = sql.ErrNoRows

// Snapshot is the last successfully generated detail page for a slug.
type Snapshot struct {
	Slug        string
	Post        content.Post
	GeneratedAt time.Time
}

// Store wraps a SQLite database holding page snapshots, so a restart or a
// CMS outage on a cold cache still has something to serve.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets request goroutines read while a regeneration writes;
	// busy_timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS page_snapshots (
    slug TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    generated_at TEXT NOT NULL
);
`)
	return err
}

// SaveSnapshot upserts the page generated for slug at the given time.
func (s *Store) SaveSnapshot(slug string, post content.Post, at time.Time) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", slug, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO page_snapshots (slug, payload, generated_at) VALUES (?, ?, ?)`,
		slug, string(payload), at.UTC().Format(time.RFC3339Nano))
	return err
}

// GetSnapshot returns the snapshot for slug, or ErrSnapshotNotFound.
func (s *Store) GetSnapshot(slug string) (Snapshot, error) {
	var payload, generatedAt string
	err := s.db.QueryRow(`SELECT payload, generated_at FROM page_snapshots WHERE slug = ?`, slug).
		Scan(&payload, &generatedAt)
	if err != nil {
		return Snapshot{}, err
	}
	return decodeSnapshot(slug, payload, generatedAt)
}

// ListSnapshots returns every snapshot ordered by slug.
func (s *Store) ListSnapshots() ([]Snapshot, error) {
	rows, err := s.db.Query(`SELECT slug, payload, generated_at FROM page_snapshots ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var slug, payload, generatedAt string
		if err := rows.Scan(&slug, &payload, &generatedAt); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(slug, payload, generatedAt)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DeleteSnapshot removes the snapshot for slug. Deleting a missing slug is
// not an error.
func (s *Store) DeleteSnapshot(slug string) error {
	_, err := s.db.Exec(`DELETE FROM page_snapshots WHERE slug = ?`, slug)
	return err
}

func decodeSnapshot(slug, payload, generatedAt string) (Snapshot, error) {
	var post content.Post
	if err := json.Unmarshal([]byte(payload), &post); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", slug, err)
	}
	at, err := time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", slug, err)
	}
	return Snapshot{Slug: slug, Post: post, GeneratedAt: at}, nil
}
