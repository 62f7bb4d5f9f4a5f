// ABOUTME: Settings manager binding named structures to owners and their guilds
// ABOUTME: Loads stored records on creation and re-flattens live settings before every save

package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/2389/solon/internal/codex"
	"github.com/2389/solon/internal/database"
	"github.com/2389/solon/internal/guild"
)

// Persistence is the durable record store the manager reads from and stages
// records into. *database.Database implements it.
type Persistence interface {
	// Load returns database.ErrNotFound when key was never saved.
	Load(ctx context.Context, key string) (map[string]string, error)
	Save(ctx context.Context, key string, record map[string]string) error
	RegisterPreSave(fn func(ctx context.Context) error)
}

var _ Persistence = (*database.Database)(nil)

// LivenessFunc reports whether the owner behind an id is still active.
type LivenessFunc func(ownerID string) bool

// Option configures a Manager.
type Option func(*Manager)

// WithLiveness filters Owners through live.
func WithLiveness(live LivenessFunc) Option {
	return func(m *Manager) {
		m.live = live
	}
}

// OwnerID builds the owner id for a cog's settings in one guild.
func OwnerID(cog string, guildID uint64) string {
	return cog + "." + strconv.FormatUint(guildID, 10)
}

// SplitOwnerID is the inverse of OwnerID.
func SplitOwnerID(ownerID string) (cog string, guildID uint64, err error) {
	cog, rest, ok := strings.Cut(ownerID, ".")
	if !ok || cog == "" {
		return "", 0, fmt.Errorf("owner id %q is not <cog>.<guild id>", ownerID)
	}
	guildID, err = guild.ParseID(rest)
	if err != nil {
		return "", 0, fmt.Errorf("owner id %q: %w", ownerID, err)
	}
	return cog, guildID, nil
}

// StructureName is the structure type name used for an owner's settings.
func StructureName(ownerID string) string {
	return "settings." + ownerID
}

type entry struct {
	typ   *codex.StructureType
	value *codex.Structure
	guild guild.Guild
}

// Manager owns the live settings structure of every owner.
type Manager struct {
	reg    *codex.Registry
	db     Persistence
	logger *slog.Logger
	live   LivenessFunc

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewManager creates a Manager that builds types in reg and persists through db.
func NewManager(reg *codex.Registry, db Persistence, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		reg:     reg,
		db:      db,
		logger:  logger.With("component", "settings"),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create returns the live settings for ownerID, building them on first call:
// defaults from fields, overridden by any record stored under ownerID. The
// first call also registers a pre-save hook that writes the settings back.
// Later calls return the existing structure and ignore fields and g.
func (m *Manager) Create(ctx context.Context, ownerID string, fields map[string]codex.SerializedData, g guild.Guild) (*codex.Structure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[ownerID]; ok {
		return e.value, nil
	}

	typ, err := m.reg.Structure(StructureName(ownerID), fields)
	if err != nil {
		return nil, fmt.Errorf("building settings for %s: %w", ownerID, err)
	}
	value, err := typ.New(g)
	if err != nil {
		return nil, fmt.Errorf("building default settings for %s: %w", ownerID, err)
	}

	rec, err := m.db.Load(ctx, ownerID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		m.logger.Debug("no stored settings, using defaults", "owner", ownerID)
	case err != nil:
		return nil, fmt.Errorf("loading settings for %s: %w", ownerID, err)
	default:
		m.restore(ownerID, typ, value, rec, g)
	}

	m.entries[ownerID] = &entry{typ: typ, value: value, guild: g}
	m.db.RegisterPreSave(func(ctx context.Context) error {
		rec, err := m.Flatten(ownerID)
		if err != nil {
			return err
		}
		return m.db.Save(ctx, ownerID, rec)
	})

	m.logger.Debug("settings created", "owner", ownerID, "fields", len(fields))
	return value, nil
}

// restore overlays a stored record onto freshly built defaults. Fields that
// no longer deserialize keep their defaults.
func (m *Manager) restore(ownerID string, typ *codex.StructureType, value *codex.Structure, rec map[string]string, g guild.Guild) {
	sd, err := codex.FromRecord(rec)
	if err != nil {
		m.logger.Warn("stored settings record is malformed, keeping defaults", "owner", ownerID, "error", err)
		return
	}
	if codex.Key(sd.TypeName) != typ.TypeName() {
		m.logger.Warn("stored settings have a different type, keeping defaults", "owner", ownerID, "stored_type", sd.TypeName)
		return
	}
	if sd.Value == "" {
		return
	}

	stored, err := typ.DeserializePartial(sd.Value, g)
	if stored == nil {
		m.logger.Warn("stored settings are unreadable, keeping defaults", "owner", ownerID, "error", err)
		return
	}
	if err != nil {
		m.logger.Warn("some stored settings no longer apply, keeping their defaults", "owner", ownerID, "error", err)
	}
	if err := value.Overlay(stored); err != nil {
		m.logger.Warn("could not apply stored settings", "owner", ownerID, "error", err)
	}
}

// Get returns the value at path: a field name, or "field.key" for an entry of
// a mapping-valued field.
func (m *Manager) Get(ownerID, path string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.entry(ownerID)
	if err != nil {
		return nil, err
	}
	return m.get(e, path)
}

func (m *Manager) get(e *entry, path string) (any, error) {
	if _, ok := e.typ.FieldType(path); ok {
		v, _ := e.value.Get(path)
		if codex.IsNull(v) {
			return nil, nil
		}
		return v, nil
	}

	mapping, key, err := m.mappingEntry(e, path)
	if err != nil {
		return nil, err
	}
	v, ok := mapping.Get(key)
	if !ok || codex.IsNull(v) {
		return nil, fmt.Errorf("%w: %s", ErrNoField, path)
	}
	return v, nil
}

// Set assigns value at path. A nil value, typed or not, resets a field to its type's null
// value and removes a mapping entry.
func (m *Manager) Set(ownerID, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.entry(ownerID)
	if err != nil {
		return err
	}
	return m.set(e, path, value)
}

func (m *Manager) set(e *entry, path string, value any) error {
	if typeName, ok := e.typ.FieldType(path); ok {
		if codex.IsNull(value) {
			null, err := m.reg.NullValue(typeName)
			if err != nil {
				return err
			}
			value = null
		}
		return e.value.Set(path, value)
	}

	mapping, key, err := m.mappingEntry(e, path)
	if err != nil {
		return err
	}
	if codex.IsNull(value) {
		mapping.Delete(key)
		return nil
	}
	return mapping.Set(key, value)
}

// SetText parses raw as the type at path, resolving entities in the owner's
// guild, and assigns the result. Empty text clears the value.
func (m *Manager) SetText(ownerID, path, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.entry(ownerID)
	if err != nil {
		return err
	}
	if raw == "" {
		return m.set(e, path, nil)
	}

	typeName, err := m.typeName(e, path)
	if err != nil {
		return err
	}
	v, err := m.reg.Deserialize(codex.SerializedData{Value: raw, TypeName: typeName}, e.guild)
	if err != nil {
		return err
	}
	return m.set(e, path, v)
}

// TypeName returns the type name of the value at path.
func (m *Manager) TypeName(ownerID, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.entry(ownerID)
	if err != nil {
		return "", err
	}
	return m.typeName(e, path)
}

func (m *Manager) typeName(e *entry, path string) (string, error) {
	if typeName, ok := e.typ.FieldType(path); ok {
		return typeName, nil
	}

	base, _, ok := strings.Cut(path, ".")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoField, path)
	}
	mapping, err := m.mappingField(e, base, path)
	if err != nil {
		return "", err
	}
	return mapping.Type().ValueType(), nil
}

// FieldNames returns the owner's field names in sorted order.
func (m *Manager) FieldNames(ownerID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.entry(ownerID)
	if err != nil {
		return nil, err
	}
	return e.value.FieldNames(), nil
}

// Describe renders the value at path for display to an operator.
func (m *Manager) Describe(ownerID, path string) (string, error) {
	v, err := m.Get(ownerID, path)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "<empty>", nil
	}
	if mapping, ok := v.(*codex.Mapping); ok && mapping.Len() == 0 {
		return "<empty>", nil
	}
	return fmt.Sprint(v), nil
}

// Flatten serializes the owner's live settings into the persisted record
// form without touching storage or the live values.
func (m *Manager) Flatten(ownerID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.entry(ownerID)
	if err != nil {
		return nil, err
	}
	sd, err := m.reg.Serialize(e.value, e.typ.TypeName())
	if err != nil {
		return nil, fmt.Errorf("flattening settings for %s: %w", ownerID, err)
	}
	return sd.Record(), nil
}

// Owners returns the sorted cog names that have settings in guildID,
// skipping owners the liveness check reports inactive.
func (m *Manager) Owners(guildID uint64) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cogs []string
	for ownerID, e := range m.entries {
		if e.guild == nil || e.guild.ID() != guildID {
			continue
		}
		if m.live != nil && !m.live(ownerID) {
			continue
		}
		cog, _, err := SplitOwnerID(ownerID)
		if err != nil {
			cog = ownerID
		}
		cogs = append(cogs, cog)
	}
	sort.Strings(cogs)
	return cogs
}

func (m *Manager) entry(ownerID string) (*entry, error) {
	e, ok := m.entries[ownerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOwner, ownerID)
	}
	return e, nil
}

// mappingEntry splits "field.key" once and deserializes key with the
// mapping's key type.
func (m *Manager) mappingEntry(e *entry, path string) (*codex.Mapping, any, error) {
	base, sub, ok := strings.Cut(path, ".")
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoField, path)
	}
	mapping, err := m.mappingField(e, base, path)
	if err != nil {
		return nil, nil, err
	}

	key, err := m.reg.Deserialize(codex.SerializedData{Value: sub, TypeName: mapping.Type().KeyType()}, e.guild)
	if err != nil {
		return nil, nil, fmt.Errorf("key of %s: %w", path, err)
	}
	if key == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoField, path)
	}
	return mapping, key, nil
}

func (m *Manager) mappingField(e *entry, base, path string) (*codex.Mapping, error) {
	c, ok := e.typ.FieldCodex(base)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoField, path)
	}
	if _, isMapping := c.(*codex.MappingType); !isMapping {
		return nil, fmt.Errorf("%w: %s is not a mapping", ErrNoField, base)
	}
	v, _ := e.value.Get(base)
	mapping, ok := v.(*codex.Mapping)
	if !ok || mapping == nil {
		return nil, fmt.Errorf("%w: %s is not a mapping", ErrNoField, base)
	}
	return mapping, nil
}
