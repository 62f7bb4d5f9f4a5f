// ABOUTME: Registry mapping case-insensitive type keys to codices
// ABOUTME: Serializes values to SerializedData and back with guild-aware lookups

package codex

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/2389/solon/internal/guild"
)

// Codex converts values of one type to and from text.
type Codex interface {
	// TypeName is the canonical, case-preserving name of the type.
	TypeName() string
	// Serialize renders a non-nil value.
	Serialize(v any) (string, error)
	// Deserialize parses non-empty text. g may be nil for types that need no tenant.
	Deserialize(s string, g guild.Guild) (any, error)
	// Accepts reports whether v has this codex's runtime type.
	Accepts(v any) bool
}

// Nullable is implemented by codices with a defined empty value.
type Nullable interface {
	NullValue() any
}

const (
	recordValueKey = "value_serialized"
	recordTypeKey  = "type_name"
)

// SerializedData is a value in textual form tagged with its type name.
// An empty Value is the null sentinel for every type.
type SerializedData struct {
	Value    string
	TypeName string
}

// Record returns the two-entry mapping persisted by the settings layer.
func (d SerializedData) Record() map[string]string {
	return map[string]string{
		recordValueKey: d.Value,
		recordTypeKey:  d.TypeName,
	}
}

func (d SerializedData) String() string {
	return fmt.Sprintf("{%s: %s, %s: %s}", recordValueKey, quote(d.Value), recordTypeKey, quote(d.TypeName))
}

// FromRecord is the inverse of SerializedData.Record.
func FromRecord(rec map[string]string) (SerializedData, error) {
	typeName, ok := rec[recordTypeKey]
	if !ok || typeName == "" {
		return SerializedData{}, fmt.Errorf("record has no %s", recordTypeKey)
	}
	value, ok := rec[recordValueKey]
	if !ok {
		return SerializedData{}, fmt.Errorf("record has no %s", recordValueKey)
	}
	return SerializedData{Value: value, TypeName: typeName}, nil
}

// Registry holds every codex known to the process and the memoized composite
// types built from them. Registration is expected to happen at startup;
// afterwards the registry is read-mostly.
type Registry struct {
	mu      sync.RWMutex
	codices map[string]Codex // lower-cased key -> codex

	buildMu    sync.Mutex // serializes composite builders so a shape is built once
	lists      map[string]*ListType
	mappings   map[string]*MappingType
	structures map[string]*StructureType

	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		codices:    make(map[string]Codex),
		lists:      make(map[string]*ListType),
		mappings:   make(map[string]*MappingType),
		structures: make(map[string]*StructureType),
		logger:     logger.With("component", "codex"),
	}
}

// NewDefaultRegistry creates a registry with every built-in codex registered.
// It panics on a static configuration error, which can only be a programming defect.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	if err := registerBuiltins(r); err != nil {
		panic(err)
	}
	return r
}

// Key returns the canonical registry key for a type name.
func Key(typeName string) string {
	return strings.ToLower(strings.TrimSpace(typeName))
}

// Register associates key with c. Keys are case-insensitive.
// Returns ErrDuplicateType if key is already taken.
func (r *Registry) Register(key string, c Codex) error {
	k := Key(key)
	if k == "" || c == nil {
		return fmt.Errorf("%w: empty key or nil codex", ErrStaticConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.codices[k]; exists {
		return fmt.Errorf("%w: %q is already handled by %s", ErrDuplicateType, key, existing.TypeName())
	}
	r.codices[k] = c

	r.logger.Debug("registered codex", "key", k, "type", c.TypeName())
	return nil
}

// Lookup returns the codex for key. Returns ErrUnknownType if there is none.
func (r *Registry) Lookup(key string) (Codex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codices[Key(key)]
	if !ok {
		return nil, fmt.Errorf("%w: I don't recognise the type %s", ErrUnknownType, key)
	}
	return c, nil
}

// TypeNames returns every registered key in sorted order.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.codices))
	for k := range r.codices {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Serialize converts v to text using the codex for typeName.
// A nil v produces the null sentinel without consulting the codex.
func (r *Registry) Serialize(v any, typeName string) (SerializedData, error) {
	if IsNull(v) {
		return SerializedData{Value: "", TypeName: typeName}, nil
	}

	c, err := r.Lookup(typeName)
	if err != nil {
		return SerializedData{}, err
	}

	s, err := c.Serialize(v)
	if err != nil {
		return SerializedData{}, &SerializationError{TypeName: c.TypeName(), Err: err}
	}
	return SerializedData{Value: s, TypeName: typeName}, nil
}

// Deserialize converts d back into a value, resolving entities against g.
// The null sentinel yields the codex's null value, or nil when it has none.
func (r *Registry) Deserialize(d SerializedData, g guild.Guild) (any, error) {
	c, err := r.Lookup(d.TypeName)
	if err != nil {
		return nil, err
	}

	if d.Value == "" {
		return nullValue(c), nil
	}

	v, err := c.Deserialize(d.Value, g)
	if err != nil {
		return nil, &SerializationError{TypeName: c.TypeName(), Value: d.Value, Err: err}
	}
	return v, nil
}

// NullValue returns the empty value for typeName (nil for types without one).
func (r *Registry) NullValue(typeName string) (any, error) {
	c, err := r.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	return nullValue(c), nil
}

func nullValue(c Codex) any {
	if n, ok := c.(Nullable); ok {
		return n.NullValue()
	}
	return nil
}

// IsNull treats untyped nil and typed nil pointers/maps/slices as the null sentinel.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func mismatch(want string, v any) error {
	return fmt.Errorf("%w: %T is not %s", ErrValueType, v, want)
}
