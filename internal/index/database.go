// Package index stores user-assigned entity attributes in a SQLite database
// inside the library's data directory.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/glance/internal/pattern"
)

// Database is the SQLite database handle.
type Database struct {
	db *sql.DB
}

// ErrIndexLocked indicates another process is rebuilding the index.
var ErrIndexLocked = errors.New("index is locked for rebuild")

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Path returns the location of the index database for a library.
func Path(libraryPath string) string {
	return filepath.Join(libraryPath, pattern.DataDir, "index.db")
}

// Open opens or creates the database.
func Open(libraryPath string) (*Database, error) {
	dbDir := filepath.Join(libraryPath, pattern.DataDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", pattern.DataDir, err)
	}

	db, err := sql.Open("sqlite", Path(libraryPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// OpenWithRebuild opens the database, recreating it when its schema version
// is not the current one. Returns (database, wasRebuilt, error).
func OpenWithRebuild(libraryPath string) (*Database, bool, error) {
	dbDir := filepath.Join(libraryPath, pattern.DataDir)
	dbPath := Path(libraryPath)

	lock, err := acquireIndexLock(dbDir)
	if err != nil {
		return nil, false, err
	}
	defer lock.Release()

	if _, err := os.Stat(dbPath); err == nil {
		db, err := sql.Open("sqlite", dbPath)
		if err == nil {
			compatible := isSchemaCompatible(db)
			db.Close()
			if !compatible {
				if err := removeDatabaseFiles(dbPath); err != nil {
					return nil, false, err
				}
				fresh, err := Open(libraryPath)
				return fresh, true, err
			}
		}
	}

	db, err := Open(libraryPath)
	return db, false, err
}

type indexLock struct {
	file *os.File
}

func acquireIndexLock(dbDir string) (*indexLock, error) {
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", pattern.DataDir, err)
	}

	lockFile, err := os.OpenFile(filepath.Join(dbDir, "index.lock"), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, ErrIndexLocked
		}
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	return &indexLock{file: lockFile}, nil
}

func (l *indexLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// isSchemaCompatible checks the stored schema version.
func isSchemaCompatible(db *sql.DB) bool {
	var version string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err != nil {
		return false
	}
	return version == strconv.Itoa(CurrentDBVersion)
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 1

func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- One row per (entity, attribute). path_key and name_key hold the
		-- normalized identities; path and name keep the spelling last written.
		CREATE TABLE IF NOT EXISTS attributes (
			path_key TEXT NOT NULL,
			path TEXT NOT NULL,
			name_key TEXT NOT NULL,
			name TEXT NOT NULL,
			type INTEGER NOT NULL,
			int_value INTEGER,
			real_value REAL,
			text_value TEXT,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (path_key, name_key)
		);

		CREATE INDEX IF NOT EXISTS idx_attributes_name ON attributes(name_key);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		strconv.Itoa(CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}

// IndexStats contains index statistics.
type IndexStats struct {
	EntityCount    int `json:"entities"`
	AttributeCount int `json:"attributes"`
}

// Stats returns row counts.
func (d *Database) Stats() (*IndexStats, error) {
	var stats IndexStats
	if err := d.db.QueryRow("SELECT COUNT(*) FROM attributes").Scan(&stats.AttributeCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow("SELECT COUNT(DISTINCT path_key) FROM attributes").Scan(&stats.EntityCount); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Analyze runs SQLite's ANALYZE command to update query planner statistics.
// Call it after bulk imports.
func (d *Database) Analyze() error {
	_, err := d.db.Exec("ANALYZE")
	return err
}
