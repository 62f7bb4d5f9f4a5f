// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu      sync.RWMutex
	records map[string]*Record // keyed by record key
	closed  bool
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		records: make(map[string]*Record),
	}
}

// GetRecord retrieves a record by key.
func (m *MockStore) GetRecord(ctx context.Context, key string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// PutRecord stores a copy of rec.
func (m *MockStore) PutRecord(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := rec.Clone()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	m.records[c.Key] = c
	return nil
}

// ListRecords returns copies of the records under prefix, ordered by key.
func (m *MockStore) ListRecords(ctx context.Context, prefix string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Record
	for key, rec := range m.records {
		if strings.HasPrefix(key, prefix) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// DeleteRecord removes a record.
func (m *MockStore) DeleteRecord(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[key]; !ok {
		return ErrNotFound
	}
	delete(m.records, key)
	return nil
}

// Close marks the store closed. It never fails.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockStore) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
