// ABOUTME: Typed key/value mapping composite: memoized builder, value type and codex
// ABOUTME: Keys iterate in natural order so renderings stay stable

package codex

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2389/solon/internal/guild"
)

// MappingType is the codex for mappings with fixed key and value types.
type MappingType struct {
	name      string
	keyName   string
	valueName string
	key       Codex
	value     Codex
	reg       *Registry
}

var (
	_ Codex    = (*MappingType)(nil)
	_ Nullable = (*MappingType)(nil)
)

// Mapping returns the mapping type from keyType to valueType, building and
// registering it on first use. Composite key types are rejected.
func (r *Registry) Mapping(keyType, valueType string) (*MappingType, error) {
	k, err := r.Lookup(keyType)
	if err != nil {
		return nil, err
	}
	v, err := r.Lookup(valueType)
	if err != nil {
		return nil, err
	}
	switch k.(type) {
	case *ListType, *MappingType, *StructureType:
		return nil, fmt.Errorf("%w: %s", ErrUnhashableKey, k.TypeName())
	}

	name := k.TypeName() + "_to_" + v.TypeName()
	key := Key(name)

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	if t, ok := r.mappings[key]; ok {
		return t, nil
	}

	t := &MappingType{
		name:      name,
		keyName:   k.TypeName(),
		valueName: v.TypeName(),
		key:       k,
		value:     v,
		reg:       r,
	}
	if err := r.Register(name, t); err != nil {
		return nil, err
	}
	r.mappings[key] = t
	return t, nil
}

func (t *MappingType) TypeName() string { return t.name }

// KeyType returns the canonical name of the key type.
func (t *MappingType) KeyType() string { return t.keyName }

// ValueType returns the canonical name of the value type.
func (t *MappingType) ValueType() string { return t.valueName }

func (t *MappingType) NullValue() any { return t.New() }

// New returns an empty mapping of this type.
func (t *MappingType) New() *Mapping {
	return &Mapping{typ: t, entries: make(map[any]mappingEntry)}
}

func (t *MappingType) Accepts(v any) bool {
	m, ok := v.(*Mapping)
	return ok && m.typ == t
}

func (t *MappingType) Serialize(v any) (string, error) {
	m, ok := v.(*Mapping)
	if !ok || m.typ != t {
		return "", mismatch(t.name, v)
	}

	keys := m.Keys()
	pairs := make([]literalPair, 0, len(keys))
	for _, k := range keys {
		ks, err := t.reg.Serialize(k, t.keyName)
		if err != nil {
			return "", fmt.Errorf("key %v: %w", k, err)
		}
		vs, err := t.reg.Serialize(m.entries[identity(k)].value, t.valueName)
		if err != nil {
			return "", fmt.Errorf("value for %v: %w", k, err)
		}
		pairs = append(pairs, literalPair{key: ks.Value, value: vs.Value})
	}
	return emitMapping(pairs), nil
}

func (t *MappingType) Deserialize(s string, g guild.Guild) (any, error) {
	pairs, err := parseMapping(s)
	if err != nil {
		return nil, err
	}

	m := t.New()
	for _, p := range pairs {
		k, err := t.reg.Deserialize(SerializedData{Value: p.key, TypeName: t.keyName}, g)
		if err != nil {
			return nil, err
		}
		v, err := t.reg.Deserialize(SerializedData{Value: p.value, TypeName: t.valueName}, g)
		if err != nil {
			return nil, err
		}
		if err := m.Set(k, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Mapping is a key/value container bound to its MappingType. Entries are
// indexed by identity so a refreshed entity finds the entry stored under
// its previous instance.
type Mapping struct {
	typ     *MappingType
	entries map[any]mappingEntry
}

type mappingEntry struct {
	key   any
	value any
}

// Type returns the mapping's type.
func (m *Mapping) Type() *MappingType { return m.typ }

func (m *Mapping) Len() int { return len(m.entries) }

// Get returns the value stored under k.
func (m *Mapping) Get(k any) (any, bool) {
	if IsNull(k) {
		return nil, false
	}
	e, ok := m.entries[identity(k)]
	return e.value, ok
}

// Set stores v under k after checking both types. Keys may not be null.
// An existing entry for the same identity takes k as its new key.
func (m *Mapping) Set(k, v any) error {
	if IsNull(k) {
		return fmt.Errorf("%w: mapping keys cannot be null", ErrElementType)
	}
	if !m.typ.key.Accepts(k) {
		return fmt.Errorf("%w: key %v is not of type %s", ErrElementType, k, m.typ.keyName)
	}
	if !IsNull(v) && !m.typ.value.Accepts(v) {
		return fmt.Errorf("%w: value %v is not of type %s", ErrElementType, v, m.typ.valueName)
	}
	m.entries[identity(k)] = mappingEntry{key: k, value: v}
	return nil
}

// Delete removes k and reports whether it was present.
func (m *Mapping) Delete(k any) bool {
	if IsNull(k) {
		return false
	}
	id := identity(k)
	_, ok := m.entries[id]
	delete(m.entries, id)
	return ok
}

// Keys returns the keys in natural order.
func (m *Mapping) Keys() []any {
	keys := make([]any, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.key)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return m.compareKeys(keys[i], keys[j]) < 0
	})
	return keys
}

// compareKeys orders numbers, strings, durations and booleans by value and
// everything else (entities, emoji) by serialized form.
func (m *Mapping) compareKeys(a, b any) int {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Duration:
		if y, ok := b.(time.Duration); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	sa, _ := m.typ.key.Serialize(a)
	sb, _ := m.typ.key.Serialize(b)
	return strings.Compare(sa, sb)
}

// String renders "k=v" pairs in key order.
func (m *Mapping) String() string {
	keys := m.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%v=%v", k, m.entries[identity(k)].value)
	}
	return strings.Join(parts, ", ")
}
