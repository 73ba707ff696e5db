package storage

import (
	"path/filepath"
	"strings"
)

// TableReader defines read operations for candidate and decision tables
type TableReader interface {
	// ReadTable returns the named table. Backends holding a single table
	// ignore name.
	ReadTable(name string) (Table, error)
}

// TableWriter defines write operations for candidate tables
type TableWriter interface {
	// WriteTable replaces the named table.
	WriteTable(name string, t Table) error
}

// TableRepository combines read and write operations
type TableRepository interface {
	TableReader
	TableWriter
}

// IsSQLite reports whether path names a SQLite database rather than a CSV
// file.
func IsSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
