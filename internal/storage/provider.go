// Package storage mirrors the last good flow tree and phone directory to CSV
// snapshot files.
package storage

import "github.com/kazukitoyoda1215-max/Supporton/internal/models"

// Provider is the interface for snapshot file operations.
type Provider interface {
	// List returns metadata for every .csv snapshot, sorted by name.
	List() ([]models.SnapshotMeta, error)
	// Read returns the raw bytes of the snapshot called name.
	Read(name string) ([]byte, error)
	// Write atomically replaces the snapshot called name.
	Write(name string, content []byte) error
}
