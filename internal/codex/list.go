// ABOUTME: Typed list composite: memoized builder, value type and codex
// ABOUTME: Deserialization tries literal, single-element and whitespace-split parses in order

package codex

import (
	"fmt"
	"strings"

	"github.com/2389/solon/internal/guild"
)

// ListType is the codex for lists whose elements all share one type.
type ListType struct {
	name     string
	elemName string
	elem     Codex
	reg      *Registry
}

var (
	_ Codex    = (*ListType)(nil)
	_ Nullable = (*ListType)(nil)
)

// List returns the list type for elemType, building and registering it on
// first use. Repeated calls return the same *ListType.
func (r *Registry) List(elemType string) (*ListType, error) {
	elem, err := r.Lookup(elemType)
	if err != nil {
		return nil, err
	}
	name := elem.TypeName() + "List"
	key := Key(name)

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	if t, ok := r.lists[key]; ok {
		return t, nil
	}

	t := &ListType{name: name, elemName: elem.TypeName(), elem: elem, reg: r}
	if err := r.Register(name, t); err != nil {
		return nil, err
	}
	r.lists[key] = t
	return t, nil
}

func (t *ListType) TypeName() string { return t.name }

// ElementType returns the canonical name of the element type.
func (t *ListType) ElementType() string { return t.elemName }

func (t *ListType) NullValue() any { return t.New() }

// New returns an empty list of this type.
func (t *ListType) New() *List {
	return &List{typ: t, items: []any{}}
}

// NewList returns a list holding items, rejecting any of the wrong type.
func (t *ListType) NewList(items ...any) (*List, error) {
	l := t.New()
	if err := l.Append(items...); err != nil {
		return nil, err
	}
	return l, nil
}

func (t *ListType) Accepts(v any) bool {
	l, ok := v.(*List)
	return ok && l.typ == t
}

func (t *ListType) Serialize(v any) (string, error) {
	l, ok := v.(*List)
	if !ok || l.typ != t {
		return "", mismatch(t.name, v)
	}

	serialized := make([]string, len(l.items))
	for i, item := range l.items {
		sd, err := t.reg.Serialize(item, t.elemName)
		if err != nil {
			return "", fmt.Errorf("element %d: %w", i, err)
		}
		serialized[i] = sd.Value
	}
	return emitSequence(serialized), nil
}

// listStrategy turns operator text into candidate element strings.
type listStrategy struct {
	name  string
	split func(string) ([]string, error)
}

// Operators type lists by hand, so the bracketed form we emit is tried first,
// then the whole text as one element, then space-separated elements.
var listStrategies = []listStrategy{
	{name: "literal", split: parseSequence},
	{name: "single", split: func(s string) ([]string, error) { return []string{s}, nil }},
	{name: "whitespace", split: func(s string) ([]string, error) { return strings.Fields(s), nil }},
}

func (t *ListType) Deserialize(s string, g guild.Guild) (any, error) {
	for _, strategy := range listStrategies {
		parts, err := strategy.split(s)
		if err != nil {
			continue
		}
		l, err := t.fromSerialized(parts, g)
		if err != nil {
			continue
		}
		t.reg.logger.Debug("parsed list", "type", t.name, "strategy", strategy.name, "len", l.Len())
		return l, nil
	}
	return nil, ErrUnrecognizedList
}

func (t *ListType) fromSerialized(parts []string, g guild.Guild) (*List, error) {
	l := t.New()
	for _, part := range parts {
		v, err := t.reg.Deserialize(SerializedData{Value: part, TypeName: t.elemName}, g)
		if err != nil {
			return nil, err
		}
		if err := l.Append(v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// List is a list value bound to its ListType.
type List struct {
	typ   *ListType
	items []any
}

// Type returns the list's type.
func (l *List) Type() *ListType { return l.typ }

func (l *List) Len() int { return len(l.items) }

// Get returns the element at index i. It panics if i is out of range.
func (l *List) Get(i int) any { return l.items[i] }

// Items returns a copy of the elements.
func (l *List) Items() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Append adds vs in order. Nothing is appended if any element has the wrong type.
func (l *List) Append(vs ...any) error {
	for _, v := range vs {
		if err := l.check(v); err != nil {
			return err
		}
	}
	l.items = append(l.items, vs...)
	return nil
}

// Set replaces the element at index i.
func (l *List) Set(i int, v any) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("index %d out of range for list of length %d", i, len(l.items))
	}
	if err := l.check(v); err != nil {
		return err
	}
	l.items[i] = v
	return nil
}

// Insert places v before index i; i == Len() appends.
func (l *List) Insert(i int, v any) error {
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("index %d out of range for list of length %d", i, len(l.items))
	}
	if err := l.check(v); err != nil {
		return err
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	return nil
}

// Remove deletes the element at index i.
func (l *List) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("index %d out of range for list of length %d", i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Contains reports whether v is an element. Entities compare by id.
func (l *List) Contains(v any) bool {
	want := identity(v)
	for _, item := range l.items {
		if identity(item) == want {
			return true
		}
	}
	return false
}

func (l *List) check(v any) error {
	if IsNull(v) || l.typ.elem.Accepts(v) {
		return nil
	}
	return fmt.Errorf("%w: item %v is not of type %s", ErrElementType, v, l.typ.elemName)
}

// String renders the list for operators: comma separated, quoting elements
// that contain commas, or <empty>.
func (l *List) String() string {
	if len(l.items) == 0 {
		return "<empty>"
	}
	parts := make([]string, len(l.items))
	for i, item := range l.items {
		s := fmt.Sprint(item)
		if strings.Contains(s, ",") {
			s = "'" + s + "'"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
