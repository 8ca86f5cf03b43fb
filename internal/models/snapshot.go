package models

import "time"

// SnapshotMeta describes one mirrored CSV snapshot.
type SnapshotMeta struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
