package engine

import (
	"encoding/json"
	"time"
)

// SaveVersion is stamped into every save file. Loading a record written by a
// different version falls back to a fresh game with a warning.
const SaveVersion = "2.0.0"

// SaveRecord is the full serialized game state. GameTime and Resources are
// owned by the manager and ledger; the Sections map carries one opaque blob
// per Snapshotter system, keyed by SnapshotKey.
type SaveRecord struct {
	Version   string                     `json:"version"`
	SavedAt   time.Time                  `json:"savedAt"`
	GameTime  GameTime                   `json:"gameTime"`
	Resources []Resource                 `json:"resources"`
	Sections  map[string]json.RawMessage `json:"sections"`
}

// SaveStore persists save records. The zero slot is the autosave slot.
type SaveStore interface {
	SaveGame(slot int, rec *SaveRecord) error
	// LoadGame returns (nil, false, nil) when the slot is empty.
	LoadGame(slot int) (*SaveRecord, bool, error)
	DeleteGame(slot int) error
}
