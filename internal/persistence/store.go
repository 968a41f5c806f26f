// Package persistence stores save-game records in SQLite. Records are
// serialized to JSON, zstd-compressed and written one row per slot.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/tsukinami/otherworld/internal/engine"
)

// Store is a SQLite-backed engine.SaveStore.
type Store struct {
	conn    *sqlx.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates a save database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if s.encoder, err = zstd.NewWriter(nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	if s.decoder, err = zstd.NewReader(nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return s, nil
}

// Close releases the database connection and codecs.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		slot INTEGER PRIMARY KEY,
		version TEXT NOT NULL,
		payload BLOB NOT NULL,
		saved_at TIMESTAMP NOT NULL
	);`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveGame writes a record to a slot, replacing any previous save there.
func (s *Store) SaveGame(slot int, rec *engine.SaveRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal save: %w", err)
	}
	payload := s.encoder.EncodeAll(raw, nil)

	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO saves (slot, version, payload, saved_at) VALUES (?, ?, ?, ?)`,
		slot, rec.Version, payload, rec.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	slog.Debug("save written", "slot", slot, "raw", len(raw), "compressed", len(payload))
	return nil
}

// LoadGame reads a slot. An empty slot returns (nil, false, nil).
func (s *Store) LoadGame(slot int) (*engine.SaveRecord, bool, error) {
	var payload []byte
	err := s.conn.Get(&payload, `SELECT payload FROM saves WHERE slot = ?`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %d: %w", slot, err)
	}

	raw, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decompress slot %d: %w", slot, err)
	}
	var rec engine.SaveRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode slot %d: %w", slot, err)
	}
	return &rec, true, nil
}

// DeleteGame clears a slot. Deleting an empty slot is not an error.
func (s *Store) DeleteGame(slot int) error {
	_, err := s.conn.Exec(`DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("delete slot %d: %w", slot, err)
	}
	return nil
}

// Slots lists the occupied save slots in ascending order.
func (s *Store) Slots() ([]int, error) {
	var slots []int
	if err := s.conn.Select(&slots, `SELECT slot FROM saves ORDER BY slot`); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}
