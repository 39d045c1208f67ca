// ABOUTME: SQLite-backed ObjectStore and its connection lifecycle.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// createdAtLayout is fixed-width so text ordering matches time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps the SQLite database connection.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Compile-time check that DB implements ObjectStore.
var _ ObjectStore = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Set file permissions
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	d := &DB{db: db, dbPath: dbPath}

	if err := d.configurePragmas(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}

	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return d, nil
}

// DataDir returns the default data directory following XDG spec.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "wellness")
}

// DBPath returns the SQLite file inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "wellness.db")
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// configurePragmas sets up SQLite for concurrent readers and one writer.
func (d *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := d.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// List returns every stored version of name, oldest first.
func (d *DB) List(ctx context.Context, name string) ([]Object, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT handle, name, size, created_at
		FROM objects
		WHERE name = ?
		ORDER BY created_at ASC, handle ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()

	var objects []Object
	for rows.Next() {
		var o Object
		var createdAt string
		if err := rows.Scan(&o.Handle, &o.Name, &o.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		o.CreatedAt, err = time.Parse(createdAtLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

// Get returns the content of one object version.
func (d *DB) Get(ctx context.Context, handle string) ([]byte, error) {
	var data []byte
	err := d.db.QueryRowContext(ctx, `SELECT data FROM objects WHERE handle = ?`, handle).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", handle, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return data, nil
}

// Put stores data as a new version of name.
func (d *DB) Put(ctx context.Context, name string, data []byte) (Object, error) {
	o := Object{
		Handle:    uuid.New().String(),
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: Timestamp(),
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO objects (handle, name, data, size, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, o.Handle, o.Name, data, o.Size, o.CreatedAt.Format(createdAtLayout))
	if err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}
	return o, nil
}

// Delete removes one object version.
func (d *DB) Delete(ctx context.Context, handle string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM objects WHERE handle = ?", handle)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", handle, ErrNotFound)
	}
	return nil
}
