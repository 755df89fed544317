// Package kvstore provides the durable string records superrun keeps between
// sessions. Each backend stores values under fixed keys and replaces a value
// as a whole, so readers never observe a partial write.
package kvstore

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	fileName   = "superrun.yaml"
	sqliteName = "superrun.db"
)

// Store reads and writes named string records.
type Store interface {
	ReadString(key string) (string, bool, error)
	WriteString(key, value string) error
	Close() error
}

// Open builds the backend named by backend inside stateDir.
func Open(backend, stateDir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(filepath.Join(stateDir, fileName))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(stateDir, sqliteName))
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", backend)
	}
}
