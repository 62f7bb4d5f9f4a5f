// ABOUTME: Store interface and record type for durable settings persistence
// ABOUTME: A record is a flat string map saved under an owner key

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Record is one persisted document, e.g. the flattened settings of one owner.
type Record struct {
	Key       string
	Fields    map[string]string
	SaveID    string // save cycle that last wrote the record
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can't mutate stored state.
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return &c
}

// Store is the durable key-value backend behind the database cache.
type Store interface {
	// GetRecord returns ErrNotFound if key has never been saved.
	GetRecord(ctx context.Context, key string) (*Record, error)
	// PutRecord inserts or replaces the record under rec.Key.
	PutRecord(ctx context.Context, rec *Record) error
	// ListRecords returns every record whose key starts with prefix, ordered by key.
	ListRecords(ctx context.Context, prefix string) ([]*Record, error)
	// DeleteRecord returns ErrNotFound if key does not exist.
	DeleteRecord(ctx context.Context, key string) error
	Close() error
}
