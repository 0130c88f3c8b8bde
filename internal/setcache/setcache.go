// Package setcache keeps a small local copy of fetched flashcard sets so
// that hopping between editing and studying doesn't refetch the whole set.
// It is a convenience cache only; scheduling state always comes from the
// server.
package setcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	// sqlite3 driver backs the local cache file.
	_ "github.com/mattn/go-sqlite3"

	"github.com/prepwise/study_server/internal/study"
)

const schema = `
CREATE TABLE IF NOT EXISTS sets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	payload BLOB NOT NULL,
	fetched_at TIMESTAMP NOT NULL
)`

type Cache struct {
	db *sql.DB
}

func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

type payload struct {
	FolderID *uuid.UUID   `json:"folder_id,omitempty"`
	Cards    []study.Card `json:"cards"`
}

func (c *Cache) Put(ctx context.Context, set *study.Set) error {
	bts, err := json.Marshal(payload{FolderID: set.FolderID, Cards: set.Cards})
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO sets (id, name, payload, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name,
			payload = excluded.payload, fetched_at = excluded.fetched_at`,
		set.ID.String(), set.Name, bts, time.Now().UTC())
	return err
}

// Get returns the cached set, or ok=false when it was never cached.
func (c *Cache) Get(ctx context.Context, setID uuid.UUID) (*study.Set, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT name, payload FROM sets WHERE id = ?`, setID.String())
	var name string
	var bts []byte
	if err := row.Scan(&name, &bts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var p payload
	if err := json.Unmarshal(bts, &p); err != nil {
		return nil, false, err
	}
	return &study.Set{ID: setID, Name: name, FolderID: p.FolderID, Cards: p.Cards}, true, nil
}

func (c *Cache) Delete(ctx context.Context, setID uuid.UUID) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM sets WHERE id = ?`, setID.String())
	return err
}
