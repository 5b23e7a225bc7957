package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"
)

// PostgresReadStore implements ReadStoreInterface on a single read_models
// table keyed by (collection, id) with a JSONB payload. Rows are decoded
// into typed read models through the factory registered per collection, so
// callers can keep type-asserting the results the same way they do with the
// in-memory store.
type PostgresReadStore struct {
	db        *sql.DB
	factories map[string]func() any // collection -> typed model constructor
	mu        sync.RWMutex
}

// NewPostgresReadStore creates a PostgreSQL-backed read store. factories
// maps each collection name to a constructor for its read model type.
func NewPostgresReadStore(db *sql.DB, factories map[string]func() any) *PostgresReadStore {
	return &PostgresReadStore{db: db, factories: factories}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("[ReadStore] marshal %s/%s: %v", collection, id, err)
		return
	}

	_, err = rs.db.Exec(
		`INSERT INTO read_models (collection, id, data, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		collection, id, payload, time.Now(),
	)
	if err != nil {
		log.Printf("[ReadStore] upsert %s/%s: %v", collection, id, err)
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var payload []byte
	err := rs.db.QueryRow(
		`SELECT data FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		log.Printf("[ReadStore] get %s/%s: %v", collection, id, err)
		return nil, false
	}

	model, err := rs.decode(collection, payload)
	if err != nil {
		log.Printf("[ReadStore] decode %s/%s: %v", collection, id, err)
		return nil, false
	}
	return model, true
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	rows, err := rs.db.Query(
		`SELECT data FROM read_models WHERE collection = $1 ORDER BY updated_at ASC`,
		collection,
	)
	if err != nil {
		log.Printf("[ReadStore] list %s: %v", collection, err)
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		model, err := rs.decode(collection, payload)
		if err != nil {
			continue
		}
		items = append(items, model)
	}
	return items
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, err := rs.db.Exec(
		`DELETE FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	); err != nil {
		log.Printf("[ReadStore] delete %s/%s: %v", collection, id, err)
	}
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	current, ok := rs.Get(collection, id)
	if !ok {
		return false
	}
	rs.Set(collection, id, updateFn(current))
	return true
}

func (rs *PostgresReadStore) decode(collection string, payload []byte) (any, error) {
	factory, ok := rs.factories[collection]
	if !ok {
		return nil, errors.New("no read model registered for collection " + collection)
	}
	model := factory()
	if err := json.Unmarshal(payload, model); err != nil {
		return nil, err
	}
	return model, nil
}
