// Package library stores the camera roll (recorded clips) in SQLite.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tesso57/jelly/internal/domain/video"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no clip has the requested ID.
	ErrNotFound = errors.New("clip not found")
	// ErrDuplicate is returned when a clip with the same path is already stored.
	ErrDuplicate = errors.New("clip already in library")
)

// Store manages the SQLite database.
type Store struct {
	db *sql.DB
}

// New opens the library at path.
// Use ":memory:" for an in-memory database (useful for testing).
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create library directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clips (
		id TEXT PRIMARY KEY,
		path TEXT UNIQUE NOT NULL,
		quality TEXT NOT NULL,
		audio INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		recorded_at INTEGER NOT NULL,
		size INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_clips_recorded_at ON clips(recorded_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add inserts a clip.
func (s *Store) Add(c video.Clip) error {
	if c.ID == "" || c.Path == "" {
		return errors.New("clip id and path are required")
	}
	_, err := s.db.Exec(
		"INSERT INTO clips (id, path, quality, audio, duration_ms, recorded_at, size) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Path, string(c.Quality), boolToInt(c.Audio), c.Duration.Milliseconds(), c.RecordedAt.Unix(), c.Size,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%s: %w", c.Path, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert clip: %w", err)
	}
	return nil
}

// Upsert inserts a clip or, if one is already stored under the same path,
// replaces that row with c.
func (s *Store) Upsert(c video.Clip) error {
	if c.ID == "" || c.Path == "" {
		return errors.New("clip id and path are required")
	}
	_, err := s.db.Exec(`
		INSERT INTO clips (id, path, quality, audio, duration_ms, recorded_at, size) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id = excluded.id,
			quality = excluded.quality,
			audio = excluded.audio,
			duration_ms = excluded.duration_ms,
			recorded_at = excluded.recorded_at,
			size = excluded.size`,
		c.ID, c.Path, string(c.Quality), boolToInt(c.Audio), c.Duration.Milliseconds(), c.RecordedAt.Unix(), c.Size,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert clip: %w", err)
	}
	return nil
}

// Get retrieves a clip by ID.
func (s *Store) Get(id string) (video.Clip, error) {
	row := s.db.QueryRow(
		"SELECT id, path, quality, audio, duration_ms, recorded_at, size FROM clips WHERE id = ?",
		id,
	)
	c, err := scanClip(row)
	if err == sql.ErrNoRows {
		return video.Clip{}, ErrNotFound
	}
	if err != nil {
		return video.Clip{}, fmt.Errorf("failed to get clip: %w", err)
	}
	return c, nil
}

// List returns all clips, newest first.
func (s *Store) List() ([]video.Clip, error) {
	rows, err := s.db.Query("SELECT id, path, quality, audio, duration_ms, recorded_at, size FROM clips ORDER BY recorded_at DESC, path DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clips []video.Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

// HasPath reports whether a clip with the given path is stored.
func (s *Store) HasPath(path string) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM clips WHERE path = ?", path).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up clip: %w", err)
	}
	return n > 0, nil
}

// Remove deletes a clip by ID.
func (s *Store) Remove(id string) error {
	res, err := s.db.Exec("DELETE FROM clips WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete clip: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan indexes VID_*.mp4 files in dir that are not yet stored and returns
// how many were added. Files whose names do not parse are skipped, as are
// the paths in skip.
func (s *Store) Scan(dir string, skip ...string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	added := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "VID_") {
			continue
		}
		q, audio, recordedAt, err := video.ParseClipFileName(e.Name(), time.Local)
		if err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if slices.Contains(skip, path) {
			continue
		}
		exists, err := s.HasPath(path)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		err = s.Add(video.Clip{
			ID:         uuid.NewString(),
			Path:       path,
			Quality:    q,
			Audio:      audio,
			RecordedAt: recordedAt,
			Size:       size,
		})
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClip(row scanner) (video.Clip, error) {
	var (
		c          video.Clip
		quality    string
		audio      int
		durationMS int64
		recorded   int64
	)
	if err := row.Scan(&c.ID, &c.Path, &quality, &audio, &durationMS, &recorded, &c.Size); err != nil {
		return video.Clip{}, err
	}
	c.Quality = video.Quality(quality)
	c.Audio = audio != 0
	c.Duration = time.Duration(durationMS) * time.Millisecond
	c.RecordedAt = time.Unix(recorded, 0)
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
