// Package storage archives decoded RTCM messages in a SQLite
// database.  The archive lets an operator go back over what a
// reference station was sending - for example, when did the station
// report itself unhealthy, or when did the corrections for a satellite
// carry the unusable marker.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ycxzf/gpsd/rtcm2/message"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection for message storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		received_at TEXT NOT NULL,
		message_type INTEGER NOT NULL,
		station_id INTEGER NOT NULL,
		z_count INTEGER NOT NULL,
		sequence INTEGER NOT NULL,
		health INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_type ON messages(message_type);
	CREATE INDEX IF NOT EXISTS idx_messages_received_at ON messages(received_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveMessage stores one decoded message with the time it arrived and
// returns the row ID.  The payload is stored as JSON.
func (d *DB) SaveMessage(receivedAt time.Time, m *message.Message) (int64, error) {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	result, err := d.db.Exec(`
		INSERT INTO messages (received_at, message_type, station_id,
			z_count, sequence, health, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		receivedAt.UTC().Format(time.RFC3339Nano),
		m.Header.MessageType, m.Header.StationID, m.Header.ZCount,
		m.Header.Sequence, m.Header.Health, string(payload))
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	return result.LastInsertId()
}

// CountMessages returns the number of archived messages of the given
// type, or of all types if messageType is negative.
func (d *DB) CountMessages(messageType int) (int64, error) {
	var count int64
	var err error
	if messageType < 0 {
		err = d.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	} else {
		err = d.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE message_type = ?`,
			messageType).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
