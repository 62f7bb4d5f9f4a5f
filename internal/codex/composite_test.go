// ABOUTME: Tests for list, mapping and structure types and type expressions
// ABOUTME: Covers memoization, parse fallbacks, key ordering and structure completeness

package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/solon/internal/guild"
)

func TestList_Memoized(t *testing.T) {
	reg := newTestRegistry()

	a, err := reg.List(TypeRole)
	require.NoError(t, err)
	b, err := reg.List("role")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, "RoleList", a.TypeName())
	assert.Equal(t, TypeRole, a.ElementType())

	c, err := reg.Lookup("rolelist")
	require.NoError(t, err)
	assert.Same(t, a, c)

	_, err = reg.List("Widget")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestList_Deserialize(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	roles, err := reg.List(TypeRole)
	require.NoError(t, err)
	ints, err := reg.List(TypeInt)
	require.NoError(t, err)
	strs, err := reg.List(TypeStr)
	require.NoError(t, err)

	deserialize := func(t *testing.T, lt *ListType, text string) *List {
		t.Helper()
		v, err := reg.Deserialize(SerializedData{Value: text, TypeName: lt.TypeName()}, g)
		require.NoError(t, err)
		return v.(*List)
	}

	t.Run("literal", func(t *testing.T) {
		l := deserialize(t, roles, "['<@&400000000000000001>', '<@&400000000000000002>']")
		require.Equal(t, 2, l.Len())
		assert.Equal(t, adminsID, l.Get(0).(*guild.Role).ID)
		assert.Equal(t, modsID, l.Get(1).(*guild.Role).ID)
	})

	t.Run("single element", func(t *testing.T) {
		l := deserialize(t, roles, "Admins")
		require.Equal(t, 1, l.Len())
		assert.Equal(t, adminsID, l.Get(0).(*guild.Role).ID)

		l = deserialize(t, strs, "a b c")
		assert.Equal(t, []any{"a b c"}, l.Items(), "strings take the whole text before splitting")
	})

	t.Run("whitespace", func(t *testing.T) {
		l := deserialize(t, roles, "@Admins @Mods")
		require.Equal(t, 2, l.Len())
		assert.Equal(t, modsID, l.Get(1).(*guild.Role).ID)

		l = deserialize(t, ints, "1 2 3")
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, l.Items())
	})

	t.Run("bare numbers", func(t *testing.T) {
		l := deserialize(t, ints, "[1, -2, 0x10]")
		assert.Equal(t, []any{int64(1), int64(-2), int64(16)}, l.Items())
	})

	t.Run("unrecognized", func(t *testing.T) {
		_, err := reg.Deserialize(SerializedData{Value: "one two", TypeName: ints.TypeName()}, g)
		assert.ErrorIs(t, err, ErrUnrecognizedList)
		assert.ErrorIs(t, err, ErrSerialization)
	})
}

func TestList_SerializeRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	roles, err := reg.List(TypeRole)
	require.NoError(t, err)

	admins, _ := g.Role(adminsID)
	mods, _ := g.Role(modsID)
	l, err := roles.NewList(admins, mods)
	require.NoError(t, err)

	sd, err := reg.Serialize(l, roles.TypeName())
	require.NoError(t, err)
	assert.Equal(t, "['<@&400000000000000001>', '<@&400000000000000002>']", sd.Value)

	v, err := reg.Deserialize(sd, g)
	require.NoError(t, err)
	assert.Equal(t, l.Items(), v.(*List).Items())

	assert.Equal(t, "@Admins, @Mods", l.String())
	assert.Equal(t, "<empty>", roles.New().String())
}

func TestList_Mutation(t *testing.T) {
	reg := newTestRegistry()
	strs, err := reg.List(TypeStr)
	require.NoError(t, err)

	l := strs.New()
	require.NoError(t, l.Append("a", "c"))
	require.NoError(t, l.Insert(1, "b"))
	assert.Equal(t, []any{"a", "b", "c"}, l.Items())

	err = l.Append("d", int64(4))
	assert.ErrorIs(t, err, ErrElementType)
	assert.Equal(t, 3, l.Len(), "a rejected append leaves the list unchanged")

	assert.ErrorIs(t, l.Set(0, 1.5), ErrElementType)
	require.NoError(t, l.Set(0, "z"))
	require.NoError(t, l.Remove(1))
	assert.Equal(t, []any{"z", "c"}, l.Items())
	assert.True(t, l.Contains("c"))
	assert.Error(t, l.Remove(5))

	require.NoError(t, l.Append(nil), "null elements are allowed")
	assert.Equal(t, "z, c, <nil>", l.String())

	l2 := strs.New()
	require.NoError(t, l2.Append("x,y"))
	assert.Equal(t, "'x,y'", l2.String())
}

func TestMapping_Memoized(t *testing.T) {
	reg := newTestRegistry()

	a, err := reg.Mapping(TypeInt, TypeRole)
	require.NoError(t, err)
	b, err := reg.Mapping("INT", "role")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, "int_to_Role", a.TypeName())
	assert.Equal(t, TypeInt, a.KeyType())
	assert.Equal(t, TypeRole, a.ValueType())
}

func TestMapping_RejectsCompositeKeys(t *testing.T) {
	reg := newTestRegistry()
	lt, err := reg.List(TypeInt)
	require.NoError(t, err)

	_, err = reg.Mapping(lt.TypeName(), TypeStr)
	assert.ErrorIs(t, err, ErrUnhashableKey)
	assert.ErrorIs(t, err, ErrStaticConfig)
}

func TestMapping_Values(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	mt, err := reg.Mapping(TypeInt, TypeRole)
	require.NoError(t, err)

	admins, _ := g.Role(adminsID)
	mods, _ := g.Role(modsID)

	m := mt.New()
	require.NoError(t, m.Set(int64(10), admins))
	require.NoError(t, m.Set(int64(2), mods))
	require.NoError(t, m.Set(int64(5), nil))

	assert.ErrorIs(t, m.Set("10", admins), ErrElementType)
	assert.ErrorIs(t, m.Set(int64(1), "Admins"), ErrElementType)
	assert.ErrorIs(t, m.Set(nil, admins), ErrElementType)

	assert.Equal(t, []any{int64(2), int64(5), int64(10)}, m.Keys())
	assert.Equal(t, "2=@Mods, 5=<nil>, 10=@Admins", m.String())

	sd, err := reg.Serialize(m, mt.TypeName())
	require.NoError(t, err)
	assert.Equal(t, "{'2': '<@&400000000000000002>', '5': '', '10': '<@&400000000000000001>'}", sd.Value)

	v, err := reg.Deserialize(sd, g)
	require.NoError(t, err)
	back := v.(*Mapping)
	assert.Equal(t, m.Keys(), back.Keys())
	got, ok := back.Get(int64(10))
	require.True(t, ok)
	assert.Same(t, admins, got)

	assert.True(t, m.Delete(int64(5)))
	assert.False(t, m.Delete(int64(5)))
	assert.Equal(t, 2, m.Len())
}

func TestMapping_DeserializeErrors(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	mt, err := reg.Mapping(TypeStr, TypeRole)
	require.NoError(t, err)

	_, err = reg.Deserialize(SerializedData{Value: "not a mapping", TypeName: mt.TypeName()}, g)
	assert.ErrorIs(t, err, ErrSerialization)

	_, err = reg.Deserialize(SerializedData{Value: "{'x': 'Nobody'}", TypeName: mt.TypeName()}, g)
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestMapping_EntityKeysCompareByID(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	mt, err := reg.Mapping(TypeRole, TypeInt)
	require.NoError(t, err)

	admins, _ := g.Role(adminsID)
	m := mt.New()
	require.NoError(t, m.Set(admins, int64(5)))

	// the guild cache replaces the role with a fresh instance
	refreshed := &guild.Role{ID: adminsID, Name: "Admins"}
	g.AddRole(refreshed)

	got, ok := m.Get(refreshed)
	require.True(t, ok)
	assert.Equal(t, int64(5), got)

	require.NoError(t, m.Set(refreshed, int64(7)))
	assert.Equal(t, 1, m.Len())
	assert.Same(t, refreshed, m.Keys()[0])

	sd, err := reg.Serialize(m, mt.TypeName())
	require.NoError(t, err)
	assert.Equal(t, "{'<@&400000000000000001>': '7'}", sd.Value)

	assert.True(t, m.Delete(&guild.Role{ID: adminsID}))
	assert.Equal(t, 0, m.Len())
}

func TestMapping_EmojiKeysIgnoreVariationSelector(t *testing.T) {
	reg := newTestRegistry()
	mt, err := reg.Mapping(TypeEmoji, TypeInt)
	require.NoError(t, err)

	m := mt.New()
	require.NoError(t, m.Set(guild.Emoji{Name: "\u2764"}, int64(1)))
	require.NoError(t, m.Set(guild.Emoji{Name: "\u2764\uFE0F"}, int64(2)))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Set(guild.Emoji{GuildID: guildID, Name: "party", ID: partyID}, int64(3)))
	got, ok := m.Get(guild.Emoji{Name: "renamed", ID: partyID})
	require.True(t, ok)
	assert.Equal(t, int64(3), got)
}

func TestList_ContainsComparesEntitiesByID(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	roles, err := reg.List(TypeRole)
	require.NoError(t, err)

	admins, _ := g.Role(adminsID)
	l, err := roles.NewList(admins, nil)
	require.NoError(t, err)

	assert.True(t, l.Contains(&guild.Role{ID: adminsID, Name: "Admins"}))
	assert.False(t, l.Contains(&guild.Role{ID: modsID}))
	assert.True(t, l.Contains(nil))
	assert.True(t, l.Contains((*guild.Role)(nil)))
}

func sampleFields() map[string]SerializedData {
	return map[string]SerializedData{
		"prefix":     {Value: "!", TypeName: TypeStr},
		"limit":      {Value: "5", TypeName: TypeInt},
		"admins":     {Value: "", TypeName: "RoleList"},
		"thresholds": {Value: "", TypeName: "int_to_Role"},
		"cooldown":   {Value: "1m", TypeName: TypeTimedelta},
	}
}

func newSampleType(t *testing.T, reg *Registry) *StructureType {
	t.Helper()
	_, err := reg.List(TypeRole)
	require.NoError(t, err)
	_, err = reg.Mapping(TypeInt, TypeRole)
	require.NoError(t, err)

	st, err := reg.Structure("sample", sampleFields())
	require.NoError(t, err)
	return st
}

func TestStructure_Memoized(t *testing.T) {
	reg := newTestRegistry()
	st := newSampleType(t, reg)

	again, err := reg.Structure("Sample", sampleFields())
	require.NoError(t, err)
	assert.Same(t, st, again)

	fields := sampleFields()
	fields["limit"] = SerializedData{Value: "5", TypeName: TypeFloat}
	_, err = reg.Structure("sample", fields)
	assert.ErrorIs(t, err, ErrShapeConflict)
	assert.ErrorIs(t, err, ErrStaticConfig)
}

func TestStructure_MalformedFields(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Structure("bad", map[string]SerializedData{"Upper": {TypeName: TypeStr}})
	assert.ErrorIs(t, err, ErrMalformedFieldSpec)

	_, err = reg.Structure("bad", map[string]SerializedData{"x": {TypeName: "Widget"}})
	assert.ErrorIs(t, err, ErrMalformedFieldSpec)
	assert.ErrorIs(t, err, ErrStaticConfig)
}

func TestStructure_NewHasEveryField(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	st := newSampleType(t, reg)

	s, err := st.New(g)
	require.NoError(t, err)

	assert.Equal(t, []string{"admins", "cooldown", "limit", "prefix", "thresholds"}, s.FieldNames())
	for _, f := range s.FieldNames() {
		assert.True(t, s.Has(f), f)
	}

	v, _ := s.Get("limit")
	assert.Equal(t, int64(5), v)
	admins, _ := s.Get("admins")
	assert.Equal(t, 0, admins.(*List).Len())

	typeName, ok := st.FieldType("thresholds")
	require.True(t, ok)
	assert.Equal(t, "int_to_Role", typeName)
}

func TestStructure_Set(t *testing.T) {
	reg := newTestRegistry()
	st := newSampleType(t, reg)
	s, err := st.New(newTestGuild())
	require.NoError(t, err)

	require.NoError(t, s.Set("prefix", "?"))
	assert.ErrorIs(t, s.Set("prefix", int64(1)), ErrFieldType)
	assert.ErrorIs(t, s.Set("nope", "x"), ErrUnknownField)
	require.NoError(t, s.Set("limit", nil))

	v, ok := s.Get("limit")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestStructure_SerializeRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	st := newSampleType(t, reg)

	s, err := st.New(g)
	require.NoError(t, err)
	admins, _ := g.Role(adminsID)
	l, _ := s.Get("admins")
	require.NoError(t, l.(*List).Append(admins))

	sd, err := reg.Serialize(s, "sample")
	require.NoError(t, err)
	assert.Equal(t,
		`{'admins': "['<@&400000000000000001>']", 'cooldown': '60s', 'limit': '5', 'prefix': '!', 'thresholds': '{}'}`,
		sd.Value)

	v, err := reg.Deserialize(sd, g)
	require.NoError(t, err)
	back := v.(*Structure)
	for _, f := range st.FieldNames() {
		assert.True(t, back.Has(f), f)
	}
	got, _ := back.Get("admins")
	assert.Equal(t, []any{admins}, got.(*List).Items())
}

func TestStructure_PartialDeserialize(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	st := newSampleType(t, reg)

	v, err := reg.Deserialize(SerializedData{Value: "{' LIMIT ': ' 7 ', 'unknown': 'x'}", TypeName: "sample"}, g)
	require.NoError(t, err)
	partial := v.(*Structure)
	assert.True(t, partial.Has("limit"))
	assert.False(t, partial.Has("prefix"), "missing fields stay absent")

	_, err = reg.Serialize(partial, "sample")
	assert.ErrorIs(t, err, ErrSerialization, "incomplete structures do not serialize")

	fresh, err := st.New(g)
	require.NoError(t, err)
	require.NoError(t, fresh.Overlay(partial))
	limit, _ := fresh.Get("limit")
	prefix, _ := fresh.Get("prefix")
	assert.Equal(t, int64(7), limit)
	assert.Equal(t, "!", prefix)

	_, err = reg.Serialize(fresh, "sample")
	assert.NoError(t, err)
}

func TestParseTypeExpr(t *testing.T) {
	reg := newTestRegistry()

	c, err := ParseTypeExpr(reg, "[]role")
	require.NoError(t, err)
	lt, err := reg.List(TypeRole)
	require.NoError(t, err)
	assert.Same(t, lt, c)

	c, err = ParseTypeExpr(reg, "map[int][]role")
	require.NoError(t, err)
	assert.Equal(t, "int_to_RoleList", c.TypeName())

	c, err = ParseTypeExpr(reg, " timedelta ")
	require.NoError(t, err)
	assert.Equal(t, TypeTimedelta, c.TypeName())

	c, err = ParseTypeExpr(reg, "[][]int")
	require.NoError(t, err)
	assert.Equal(t, "intListList", c.TypeName())

	_, err = ParseTypeExpr(reg, "map[[]int]str")
	assert.ErrorIs(t, err, ErrUnhashableKey)

	for _, bad := range []string{"", "[]Widget", "map[]str", "map[int", "map[int]"} {
		_, err := ParseTypeExpr(reg, bad)
		assert.ErrorIs(t, err, ErrUnknownType, bad)
	}
}

func TestStructure_DeserializePartial(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()
	st := newSampleType(t, reg)
	text := "{'limit': 'lots', 'prefix': '?'}"

	_, err := reg.Deserialize(SerializedData{Value: text, TypeName: "sample"}, g)
	assert.ErrorIs(t, err, ErrSerialization, "strict deserialization rejects the bad field")

	s, err := st.DeserializePartial(text, g)
	require.NotNil(t, s)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.ErrorContains(t, err, "field limit")
	assert.False(t, s.Has("limit"))
	prefix, _ := s.Get("prefix")
	assert.Equal(t, "?", prefix)

	s, err = st.DeserializePartial("not a mapping", g)
	assert.Nil(t, s)
	assert.Error(t, err)
}
