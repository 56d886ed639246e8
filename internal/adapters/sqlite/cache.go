package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"noteferry/internal/domain"
	"noteferry/internal/ports"

	_ "modernc.org/sqlite"
)

// Bumped to 2 when remote_updated switched from seconds to nanoseconds;
// old rows would misclassify sub-second timestamps.
const schemaVersion = "2"

// Cache implements ports.IndexCache using SQLite. It stores the preamble
// fields extracted from each note keyed by (path, mtime), so a rescan only
// re-reads notes that changed on disk.
type Cache struct {
	db        *sql.DB
	vaultPath string
	dbPath    string
}

// Ensure Cache implements IndexCache
var _ ports.IndexCache = (*Cache)(nil)

// NewCache creates an unopened cache.
func NewCache() *Cache {
	return &Cache{}
}

// Open initializes the cache database for the given vault path.
func (c *Cache) Open(vaultPath string) error {
	if strings.HasPrefix(vaultPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		vaultPath = filepath.Join(home, vaultPath[1:])
	}

	c.vaultPath = vaultPath
	c.dbPath = databasePath(vaultPath)

	if err := os.MkdirAll(filepath.Dir(c.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", c.dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	c.db = db

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS notes (
			path TEXT PRIMARY KEY,
			mtime INTEGER NOT NULL,
			has_marker INTEGER NOT NULL,
			remote_id TEXT,
			remote_updated INTEGER,
			title TEXT,
			modified INTEGER
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notes_remote_id ON notes(remote_id);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup cache database: %w", err)
	}

	if c.staleSchema() {
		if _, err := db.Exec(`DELETE FROM notes`); err != nil {
			db.Close()
			return fmt.Errorf("failed to reset cache: %w", err)
		}
	}
	if err := c.updateMeta(); err != nil {
		db.Close()
		return fmt.Errorf("failed to update cache metadata: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached entry when path and mtime both match.
func (c *Cache) Get(path string, mtime int64) (*ports.CachedNote, bool) {
	if c.db == nil {
		return nil, false
	}

	var (
		gotMtime      int64
		hasMarker     int
		remoteID      sql.NullString
		remoteUpdated sql.NullInt64
		title         sql.NullString
		modified      sql.NullInt64
	)
	err := c.db.QueryRow(
		`SELECT mtime, has_marker, remote_id, remote_updated, title, modified
		 FROM notes WHERE path = ?`, path,
	).Scan(&gotMtime, &hasMarker, &remoteID, &remoteUpdated, &title, &modified)
	if err != nil || gotMtime != mtime {
		return nil, false
	}

	note := &ports.CachedNote{Path: path, Mtime: mtime}
	if hasMarker != 0 {
		note.Record = &domain.LocalRecord{
			Path:          path,
			RemoteID:      remoteID.String,
			RemoteUpdated: time.Unix(0, remoteUpdated.Int64).UTC(),
			Title:         title.String,
			Modified:      modified.Int64 != 0,
		}
	}
	return note, true
}

// Put upserts one scan result.
func (c *Cache) Put(note ports.CachedNote) error {
	if c.db == nil {
		return fmt.Errorf("cache is not open")
	}

	if note.Record == nil {
		_, err := c.db.Exec(
			`INSERT OR REPLACE INTO notes (path, mtime, has_marker) VALUES (?, ?, 0)`,
			note.Path, note.Mtime)
		return err
	}

	rec := note.Record
	var modified int64
	if rec.Modified {
		modified = 1
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO notes
		 (path, mtime, has_marker, remote_id, remote_updated, title, modified)
		 VALUES (?, ?, 1, ?, ?, ?, ?)`,
		note.Path, note.Mtime, rec.RemoteID, rec.RemoteUpdated.UnixNano(), rec.Title, modified)
	return err
}

// Prune drops entries for paths no longer present in the vault.
func (c *Cache) Prune(live map[string]bool) error {
	if c.db == nil {
		return fmt.Errorf("cache is not open")
	}

	rows, err := c.db.Query(`SELECT path FROM notes`)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return err
		}
		if !live[path] {
			stale = append(stale, path)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, path := range stale {
		if _, err := c.db.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
			return err
		}
	}
	return nil
}

// staleSchema reports whether the stored schema or vault no longer match.
func (c *Cache) staleSchema() bool {
	var version, vaultHash string
	c.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	c.db.QueryRow(`SELECT value FROM meta WHERE key = 'vault_path_hash'`).Scan(&vaultHash)
	return version != schemaVersion || vaultHash != hashVaultPath(c.vaultPath)
}

// updateMeta stores the schema version and vault path hash.
func (c *Cache) updateMeta() error {
	for key, value := range map[string]string{
		"schema_version":  schemaVersion,
		"vault_path_hash": hashVaultPath(c.vaultPath),
	} {
		if _, err := c.db.Exec(
			`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return err
		}
	}
	return nil
}

// databasePath returns the cache location under the XDG data directory.
func databasePath(vaultPath string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "noteferry", hashVaultPath(vaultPath)+".db")
}

// hashVaultPath returns a short hash of the vault path.
func hashVaultPath(vaultPath string) string {
	h := sha256.Sum256([]byte(vaultPath))
	return hex.EncodeToString(h[:8])
}
