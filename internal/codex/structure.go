// ABOUTME: Named structure composite: fixed schema of typed fields with defaults
// ABOUTME: Fresh instances deserialize every default; parsed instances hold only the fields present

package codex

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/2389/solon/internal/guild"
)

// StructureType is the codex for a named, fixed-schema record of fields.
type StructureType struct {
	name     string
	fields   []string // sorted
	defaults map[string]SerializedData
	codices  map[string]Codex
	reg      *Registry
}

var _ Codex = (*StructureType)(nil)

// Structure returns the structure type called name with the given field
// defaults, building and registering it on first use. Field names must be
// lower case. Reusing a name with a different field/type shape is a static
// configuration error.
func (r *Registry) Structure(name string, fields map[string]SerializedData) (*StructureType, error) {
	name = Key(name)
	if name == "" {
		return nil, fmt.Errorf("%w: structure needs a name", ErrMalformedFieldSpec)
	}

	codices := make(map[string]Codex, len(fields))
	names := make([]string, 0, len(fields))
	for field, def := range fields {
		if field == "" || field != Key(field) {
			return nil, fmt.Errorf("%w: field name %q in %s must be non-empty lower case", ErrMalformedFieldSpec, field, name)
		}
		c, err := r.Lookup(def.TypeName)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s of %s: %w", ErrMalformedFieldSpec, field, name, err)
		}
		codices[field] = c
		names = append(names, field)
	}
	sort.Strings(names)

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	if t, ok := r.structures[name]; ok {
		if !t.sameShape(codices) {
			return nil, fmt.Errorf("%w: %s", ErrShapeConflict, name)
		}
		return t, nil
	}

	t := &StructureType{
		name:     name,
		fields:   names,
		defaults: maps.Clone(fields),
		codices:  codices,
		reg:      r,
	}
	if err := r.Register(name, t); err != nil {
		return nil, err
	}
	r.structures[name] = t
	return t, nil
}

func (t *StructureType) sameShape(codices map[string]Codex) bool {
	if len(codices) != len(t.codices) {
		return false
	}
	for field, c := range codices {
		existing, ok := t.codices[field]
		if !ok || existing != c {
			return false
		}
	}
	return true
}

func (t *StructureType) TypeName() string { return t.name }

// FieldNames returns the declared fields in sorted order.
func (t *StructureType) FieldNames() []string {
	return append([]string(nil), t.fields...)
}

// FieldType returns the type name declared for field.
func (t *StructureType) FieldType(field string) (string, bool) {
	def, ok := t.defaults[field]
	if !ok {
		return "", false
	}
	return def.TypeName, true
}

// FieldCodex returns the codex used for field.
func (t *StructureType) FieldCodex(field string) (Codex, bool) {
	c, ok := t.codices[field]
	return c, ok
}

// New builds a fresh instance with every field deserialized from its default.
func (t *StructureType) New(g guild.Guild) (*Structure, error) {
	s := t.empty()
	for _, field := range t.fields {
		v, err := t.reg.Deserialize(t.defaults[field], g)
		if err != nil {
			return nil, fmt.Errorf("default for %s.%s: %w", t.name, field, err)
		}
		s.values[field] = v
	}
	return s, nil
}

func (t *StructureType) empty() *Structure {
	return &Structure{typ: t, values: make(map[string]any, len(t.fields))}
}

func (t *StructureType) Accepts(v any) bool {
	s, ok := v.(*Structure)
	return ok && s.typ == t
}

func (t *StructureType) Serialize(v any) (string, error) {
	s, ok := v.(*Structure)
	if !ok || s.typ != t {
		return "", mismatch(t.name, v)
	}

	pairs := make([]literalPair, 0, len(t.fields))
	for _, field := range t.fields {
		value, ok := s.values[field]
		if !ok {
			return "", fmt.Errorf("%s structures must have a %s field", t.name, field)
		}
		sd, err := t.reg.Serialize(value, t.defaults[field].TypeName)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", field, err)
		}
		pairs = append(pairs, literalPair{key: field, value: sd.Value})
	}
	return emitMapping(pairs), nil
}

// Deserialize parses a literal mapping of field names to serialized values.
// Unknown fields are ignored and missing ones stay absent; use Overlay to
// apply the result on top of a fresh instance.
func (t *StructureType) Deserialize(text string, g guild.Guild) (any, error) {
	s, fieldErrs, err := t.deserialize(text, g)
	if err != nil {
		return nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs[0]
	}
	return s, nil
}

// DeserializePartial is Deserialize without the all-or-nothing rule: fields
// whose values no longer parse (a deleted role, say) are left absent and
// reported joined in the error next to the usable structure. A nil structure
// means the text was not a mapping at all.
func (t *StructureType) DeserializePartial(text string, g guild.Guild) (*Structure, error) {
	s, fieldErrs, err := t.deserialize(text, g)
	if err != nil {
		return nil, err
	}
	return s, errors.Join(fieldErrs...)
}

func (t *StructureType) deserialize(text string, g guild.Guild) (*Structure, []error, error) {
	pairs, err := parseMapping(text)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot parse this structure, please check your syntax: %w", err)
	}

	s := t.empty()
	var fieldErrs []error
	for _, p := range pairs {
		field := Key(p.key)
		def, ok := t.defaults[field]
		if !ok {
			t.reg.logger.Debug("ignoring unknown structure field", "structure", t.name, "field", field)
			continue
		}
		v, err := t.reg.Deserialize(SerializedData{Value: strings.TrimSpace(p.value), TypeName: def.TypeName}, g)
		if err == nil {
			err = s.Set(field, v)
		}
		if err != nil {
			fieldErrs = append(fieldErrs, fmt.Errorf("field %s: %w", field, err))
		}
	}
	return s, fieldErrs, nil
}

// Structure is a live instance of a StructureType.
type Structure struct {
	typ    *StructureType
	values map[string]any
}

// Type returns the structure's type.
func (s *Structure) Type() *StructureType { return s.typ }

// Has reports whether field currently holds a value (possibly null).
func (s *Structure) Has(field string) bool {
	_, ok := s.values[field]
	return ok
}

// Get returns the value of field.
func (s *Structure) Get(field string) (any, bool) {
	v, ok := s.values[field]
	return v, ok
}

// Set assigns field. nil is always accepted as the null sentinel.
func (s *Structure) Set(field string, v any) error {
	c, ok := s.typ.codices[field]
	if !ok {
		return fmt.Errorf("%w: no field called %s in structure %s", ErrUnknownField, field, s.typ.name)
	}
	if !IsNull(v) && !c.Accepts(v) {
		return fmt.Errorf("%w: item %v is not of type %s", ErrFieldType, v, c.TypeName())
	}
	s.values[field] = v
	return nil
}

// FieldNames returns the declared fields in sorted order.
func (s *Structure) FieldNames() []string {
	return s.typ.FieldNames()
}

// Overlay copies every field present in other onto s.
func (s *Structure) Overlay(other *Structure) error {
	if other.typ != s.typ {
		return fmt.Errorf("%w: cannot overlay %s onto %s", ErrValueType, other.typ.name, s.typ.name)
	}
	maps.Copy(s.values, other.values)
	return nil
}
