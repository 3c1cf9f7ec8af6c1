package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Yeint-herp/rex/internal/debug"
)

// SQLite is the PinStore backed by a sqlite database file.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (creating if needed) the pin database at dbPath.
func OpenSQLite(dbPath string) (*SQLite, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Performance Tuning
	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, err
	}

	// Insertion order is the rowid order; id exists so removals never
	// disturb the ordering of the survivors.
	schema := `
	CREATE TABLE IF NOT EXISTS pins (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		path  TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	debug.Log(debug.STORE, "opened pin store at %s", dbPath)
	return &SQLite{conn: db}, nil
}

// List returns all pins, oldest first.
func (s *SQLite) List() ([]Pin, error) {
	rows, err := s.conn.Query("SELECT path, label FROM pins ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pins []Pin
	for rows.Next() {
		var p Pin
		if err := rows.Scan(&p.Path, &p.Label); err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, rows.Err()
}

// Add appends a pin, failing with ErrAlreadyPinned on a duplicate path.
func (s *SQLite) Add(pin Pin) error {
	res, err := s.conn.Exec("INSERT OR IGNORE INTO pins (path, label) VALUES (?, ?)", pin.Path, pin.Label)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyPinned
	}
	debug.Log(debug.STORE, "pinned %s", pin.Path)
	return nil
}

// Remove deletes the pin for path, failing with ErrNotPinned if absent.
func (s *SQLite) Remove(path string) error {
	res, err := s.conn.Exec("DELETE FROM pins WHERE path = ?", path)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPinned
	}
	debug.Log(debug.STORE, "unpinned %s", path)
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
