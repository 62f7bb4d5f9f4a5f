// ABOUTME: Record cache over a durable Store with pre-save hooks and a save cycle
// ABOUTME: Records are staged in memory by Save and flushed to the store by SaveAll

package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/solon/internal/store"
)

// ErrNotFound is returned by Load when neither the cache nor the store has a record.
var ErrNotFound = store.ErrNotFound

// PreSaveHook runs at the start of every save cycle, before records are flushed.
type PreSaveHook = func(ctx context.Context) error

// Database caches records in memory and persists dirty ones on SaveAll.
type Database struct {
	store   store.Store
	logger  *slog.Logger
	enabled bool

	mu    sync.Mutex
	cache map[string]map[string]string
	dirty map[string]struct{}

	hooksMu sync.Mutex
	hooks   []PreSaveHook

	saveMu sync.Mutex // one save cycle at a time
}

// Option configures a Database.
type Option func(*Database)

// WithEnabled turns writes to the store on or off. When off, SaveAll logs the
// records it would have written.
func WithEnabled(enabled bool) Option {
	return func(d *Database) {
		d.enabled = enabled
	}
}

// New creates a Database backed by st.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Database {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Database{
		store:   st,
		logger:  logger.With("component", "database"),
		enabled: true,
		cache:   make(map[string]map[string]string),
		dirty:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load returns a copy of the record under key, reading through to the store
// on a cache miss. Returns ErrNotFound if there is no such record.
func (d *Database) Load(ctx context.Context, key string) (map[string]string, error) {
	d.mu.Lock()
	if rec, ok := d.cache[key]; ok {
		d.mu.Unlock()
		return maps.Clone(rec), nil
	}
	d.mu.Unlock()

	rec, err := d.store.GetRecord(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		d.logger.Warn("no stored record, this may not be a problem on a fresh run", "key", key)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// a Save that raced the read wins
	if staged, ok := d.cache[key]; ok {
		return maps.Clone(staged), nil
	}
	d.cache[key] = rec.Fields
	return maps.Clone(rec.Fields), nil
}

// Save stages record under key. It reaches the store on the next SaveAll.
func (d *Database) Save(ctx context.Context, key string, record map[string]string) error {
	if key == "" {
		return errors.New("record key cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache[key] = maps.Clone(record)
	d.dirty[key] = struct{}{}
	return nil
}

// RegisterPreSave adds fn to the hooks run at the start of every SaveAll.
func (d *Database) RegisterPreSave(fn PreSaveHook) {
	d.hooksMu.Lock()
	defer d.hooksMu.Unlock()
	d.hooks = append(d.hooks, fn)
}

// Keys returns the keys under prefix known to the cache or the store, sorted.
func (d *Database) Keys(ctx context.Context, prefix string) ([]string, error) {
	recs, err := d.store.ListRecords(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		seen[rec.Key] = struct{}{}
	}
	d.mu.Lock()
	for key := range d.cache {
		if strings.HasPrefix(key, prefix) {
			seen[key] = struct{}{}
		}
	}
	d.mu.Unlock()

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// SaveAll runs every pre-save hook, then writes dirty records to the store.
// A failing hook is logged and does not stop the others or the flush; all
// failures are returned joined.
func (d *Database) SaveAll(ctx context.Context) error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	var errs []error

	d.hooksMu.Lock()
	hooks := append([]PreSaveHook(nil), d.hooks...)
	d.hooksMu.Unlock()

	d.logger.Debug("calling pre-save hooks", "count", len(hooks))
	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			d.logger.Error("pre-save hook failed", "hook", i, "error", err)
			errs = append(errs, fmt.Errorf("pre-save hook %d: %w", i, err))
		}
	}

	saveID := uuid.NewString()
	pending := d.takeDirty()

	if !d.enabled {
		for _, key := range sortedKeys(pending) {
			d.logger.Info("saving is disabled, record not written", "save_id", saveID, "key", key, "record", pending[key])
		}
		return errors.Join(errs...)
	}

	d.logger.Info("saving records", "save_id", saveID, "count", len(pending))
	now := time.Now().UTC()
	for _, key := range sortedKeys(pending) {
		rec := &store.Record{Key: key, Fields: pending[key], SaveID: saveID, UpdatedAt: now}
		if err := d.store.PutRecord(ctx, rec); err != nil {
			d.logger.Error("failed to save record", "key", key, "error", err)
			errs = append(errs, fmt.Errorf("saving %s: %w", key, err))
			d.markDirty(key)
		}
	}

	d.logger.Info("save finished", "save_id", saveID, "errors", len(errs))
	return errors.Join(errs...)
}

// Run calls SaveAll every interval until ctx is done, then saves once more.
func (d *Database) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("save interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("final save before shutdown")
			return d.SaveAll(context.WithoutCancel(ctx))
		case <-ticker.C:
			if err := d.SaveAll(ctx); err != nil {
				d.logger.Warn("periodic save had errors", "error", err)
			}
		}
	}
}

// Close closes the underlying store.
func (d *Database) Close() error {
	return d.store.Close()
}

// takeDirty snapshots and clears the dirty set.
func (d *Database) takeDirty() map[string]map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := make(map[string]map[string]string, len(d.dirty))
	for key := range d.dirty {
		pending[key] = maps.Clone(d.cache[key])
	}
	clear(d.dirty)
	return pending
}

func (d *Database) markDirty(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty[key] = struct{}{}
}

func sortedKeys(m map[string]map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
