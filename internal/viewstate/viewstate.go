// Package viewstate persists per-session view preferences.
//
// Collapse flags and the hide-completed toggle are deliberately not part of
// the shared list file; they live in a small per-user SQLite database,
// keyed by list-file path so separate lists keep separate view state. View
// state is a convenience: every failure here degrades to in-memory
// defaults and never affects list correctness.
package viewstate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the view-state database connection.
type DB struct {
	*sql.DB
}

// DefaultPath returns the database location, honoring TYDO_STATE_PATH.
func DefaultPath() string {
	if p := os.Getenv("TYDO_STATE_PATH"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tydo", "state.db")
}

// Open opens or creates the view-state database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	// Busy timeout covers a second session on the same machine.
	dsn := path + "?_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	wrapped := &DB{db}
	if err := wrapped.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return wrapped, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS collapsed_groups (
			list_path TEXT NOT NULL,
			group_name TEXT NOT NULL,
			PRIMARY KEY (list_path, group_name)
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			list_path TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (list_path, key)
		)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Setting keys
const (
	settingHideDone = "hide_done"
)

// Collapsed returns the collapsed group names for a list.
func (db *DB) Collapsed(listPath string) (map[string]bool, error) {
	rows, err := db.Query(
		"SELECT group_name FROM collapsed_groups WHERE list_path = ?", listPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

// SetCollapsed records or clears the collapse flag for one group.
func (db *DB) SetCollapsed(listPath, group string, collapsed bool) error {
	if collapsed {
		_, err := db.Exec(
			"INSERT OR IGNORE INTO collapsed_groups (list_path, group_name) VALUES (?, ?)",
			listPath, group)
		return err
	}
	_, err := db.Exec(
		"DELETE FROM collapsed_groups WHERE list_path = ? AND group_name = ?",
		listPath, group)
	return err
}

// ReplaceCollapsed overwrites the collapsed set for a list in one
// transaction. Used by collapse-all / expand-all.
func (db *DB) ReplaceCollapsed(listPath string, groups map[string]bool) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM collapsed_groups WHERE list_path = ?", listPath); err != nil {
		return err
	}
	for name, collapsed := range groups {
		if !collapsed {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO collapsed_groups (list_path, group_name) VALUES (?, ?)",
			listPath, name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// HideDone returns the hide-completed flag for a list.
func (db *DB) HideDone(listPath string) (bool, error) {
	var value string
	err := db.QueryRow(
		"SELECT value FROM settings WHERE list_path = ? AND key = ?",
		listPath, settingHideDone).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// SetHideDone stores the hide-completed flag for a list.
func (db *DB) SetHideDone(listPath string, hide bool) error {
	value := "0"
	if hide {
		value = "1"
	}
	_, err := db.Exec(
		`INSERT INTO settings (list_path, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(list_path, key) DO UPDATE SET value = excluded.value`,
		listPath, settingHideDone, value)
	return err
}
