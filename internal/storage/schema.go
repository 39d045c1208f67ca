// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: One objects table holding every stored version of every logical name.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS objects (
		handle TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_objects_name_created ON objects(name, created_at DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}
