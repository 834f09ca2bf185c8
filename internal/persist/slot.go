package persist

import (
	"context"
	"database/sql"
	"sync"

	"github.com/hpungsan/recipevault/internal/db"
)

// Slot is a single-key document store, the local equivalent of one
// browser storage entry.
type Slot interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLiteSlot stores documents in the database's documents table.
type SQLiteSlot struct {
	db *sql.DB
}

// NewSQLiteSlot wraps an initialized database (see db.Init).
func NewSQLiteSlot(database *sql.DB) *SQLiteSlot {
	return &SQLiteSlot{db: database}
}

func (s *SQLiteSlot) Get(ctx context.Context, key string) (string, bool, error) {
	return db.GetDocument(ctx, s.db, key)
}

func (s *SQLiteSlot) Put(ctx context.Context, key, value string) error {
	return db.PutDocument(ctx, s.db, key, value)
}

func (s *SQLiteSlot) Delete(ctx context.Context, key string) error {
	return db.DeleteDocument(ctx, s.db, key)
}

// MemorySlot keeps documents in a map. Used for tests and throwaway sessions.
type MemorySlot struct {
	mu   sync.RWMutex
	docs map[string]string
}

// NewMemorySlot constructs an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{docs: make(map[string]string)}
}

func (m *MemorySlot) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docs[key]
	return v, ok, nil
}

func (m *MemorySlot) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = value
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}
