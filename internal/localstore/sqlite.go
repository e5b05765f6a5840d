package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"chat-client/internal/store"
)

// Namespace under which the chat snapshot is stored.
const Namespace = "chat_state"

// SQLiteSnapshotter persists store snapshots in a local sqlite database, one
// JSON document per namespace. It is the reload-survival layer: what the
// browser build kept in localStorage.
type SQLiteSnapshotter struct {
	db        *sqlx.DB
	namespace string
}

// Open creates or opens the snapshot database at path.
func Open(path string) (*SQLiteSnapshotter, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS snapshots (
        namespace TEXT PRIMARY KEY,
        payload TEXT NOT NULL,
        updated_at TIMESTAMP NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate snapshot db: %w", err)
	}

	return &SQLiteSnapshotter{db: db, namespace: Namespace}, nil
}

// Save upserts the snapshot document. Called on every store mutation, so it
// stays a single-statement write.
func (s *SQLiteSnapshotter) Save(snap store.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots (namespace, payload, updated_at) VALUES ($1, $2, $3)
         ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.namespace, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot. A missing row or an unparseable payload
// both report absence: the store falls back to empty state without a
// user-visible error.
func (s *SQLiteSnapshotter) Load() (store.Snapshot, bool, error) {
	var payload string
	err := s.db.Get(&payload, `SELECT payload FROM snapshots WHERE namespace = $1`, s.namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return store.Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Close releases the database handle.
func (s *SQLiteSnapshotter) Close() error {
	return s.db.Close()
}
