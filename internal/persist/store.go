// Package persist keeps overlay state that must survive restarts in a
// small sqlite database: the ball's resting position and the last geometry
// of each named window.
package persist

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/1broseidon/orbit/internal/coord"
)

// KeyLastBallPosition stores the ball's top-left as {"x":..,"y":..}.
const KeyLastBallPosition = "lastBallPosition"

var (
	// ErrMalformedPosition is returned when a stored position cannot be decoded.
	ErrMalformedPosition = errors.New("malformed persisted position")
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = errors.New("key not found")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a key/value and window geometry store backed by sqlite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database file if needed, applies pending migrations and
// returns a ready store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	if err := runMigrations(path); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// runMigrations applies the embedded migrations on a dedicated connection;
// closing a migrate instance closes its database handle.
func runMigrations(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value stored under key.
func (s *Store) Get(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// LoadBallPosition returns the persisted ball position. found is false
// when nothing was stored yet. A stored value that is not a finite {x,y}
// pair yields an error wrapping ErrMalformedPosition.
func (s *Store) LoadBallPosition() (coord.Point, bool, error) {
	raw, err := s.Get(KeyLastBallPosition)
	if errors.Is(err, ErrNotFound) {
		return coord.Point{}, false, nil
	}
	if err != nil {
		return coord.Point{}, false, err
	}
	p, err := DecodePosition(raw)
	if err != nil {
		return coord.Point{}, false, err
	}
	return p, true, nil
}

// SaveBallPosition persists p as the ball's resting position.
func (s *Store) SaveBallPosition(p coord.Point) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.Set(KeyLastBallPosition, string(data))
}

// DecodePosition parses a stored {x,y} object.
func DecodePosition(raw string) (coord.Point, error) {
	var v struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return coord.Point{}, fmt.Errorf("%w: %v", ErrMalformedPosition, err)
	}
	if v.X == nil || v.Y == nil {
		return coord.Point{}, fmt.Errorf("%w: missing x or y in %q", ErrMalformedPosition, raw)
	}
	return coord.Point{X: *v.X, Y: *v.Y}, nil
}

// SaveWindowGeometry records the last geometry of the window called name.
func (s *Store) SaveWindowGeometry(name string, r coord.Rect) error {
	_, err := s.db.Exec(
		`INSERT INTO window_geometry (name, x, y, width, height, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET x = excluded.x, y = excluded.y,
		   width = excluded.width, height = excluded.height, updated_at = excluded.updated_at`,
		name, r.X, r.Y, r.Width, r.Height, now(),
	)
	if err != nil {
		return fmt.Errorf("save geometry for %s: %w", name, err)
	}
	return nil
}

// LoadWindowGeometry returns the geometry saved for name.
func (s *Store) LoadWindowGeometry(name string) (coord.Rect, bool, error) {
	var r coord.Rect
	err := s.db.QueryRow(
		`SELECT x, y, width, height FROM window_geometry WHERE name = ?`, name,
	).Scan(&r.X, &r.Y, &r.Width, &r.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return coord.Rect{}, false, nil
	}
	if err != nil {
		return coord.Rect{}, false, fmt.Errorf("load geometry for %s: %w", name, err)
	}
	return r, true, nil
}

// WindowGeometries returns every saved geometry keyed by window name.
func (s *Store) WindowGeometries() (map[string]coord.Rect, error) {
	rows, err := s.db.Query(`SELECT name, x, y, width, height FROM window_geometry ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list geometries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]coord.Rect)
	for rows.Next() {
		var name string
		var r coord.Rect
		if err := rows.Scan(&name, &r.X, &r.Y, &r.Width, &r.Height); err != nil {
			return nil, err
		}
		out[name] = r
	}
	return out, rows.Err()
}

// now returns UTC time truncated to seconds (consistent with SQLite default).
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
