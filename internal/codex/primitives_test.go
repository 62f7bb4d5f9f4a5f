// ABOUTME: Tests for the primitive and guild entity codices
// ABOUTME: Covers integer prefixes, booleans, durations, mention parsing and name fallback

package codex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/solon/internal/guild"
)

func TestStringCodex_InvalidUTF8(t *testing.T) {
	reg := newTestRegistry()
	c, err := reg.Lookup(TypeStr)
	require.NoError(t, err)

	bad := "caf\xe9"
	assert.False(t, c.Accepts(bad))

	_, err = reg.Serialize(bad, TypeStr)
	assert.ErrorIs(t, err, ErrValueType)

	_, err = reg.Deserialize(SerializedData{Value: bad, TypeName: TypeStr}, nil)
	assert.ErrorIs(t, err, ErrSerialization)

	strs, err := reg.List(TypeStr)
	require.NoError(t, err)
	_, err = strs.NewList("ok", bad)
	assert.ErrorIs(t, err, ErrElementType)
}

func TestIntCodex(t *testing.T) {
	reg := newTestRegistry()

	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"-5", -5},
		{"+7", 7},
		{"0x1A", 26},
		{"0X1a", 26},
		{"-0x10", -16},
		{"0b101", 5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := reg.Deserialize(SerializedData{Value: tt.in, TypeName: TypeInt}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	for _, bad := range []string{"abc", "0x", "1.5", "--1", "0x-1"} {
		_, err := reg.Deserialize(SerializedData{Value: bad, TypeName: TypeInt}, nil)
		assert.ErrorIs(t, err, ErrSerialization, bad)
	}

	sd, err := reg.Serialize(int64(-12), TypeInt)
	require.NoError(t, err)
	assert.Equal(t, "-12", sd.Value)
}

func TestFloatCodex(t *testing.T) {
	reg := newTestRegistry()

	v, err := reg.Deserialize(SerializedData{Value: "1.5", TypeName: TypeFloat}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	sd, err := reg.Serialize(0.25, TypeFloat)
	require.NoError(t, err)
	assert.Equal(t, "0.25", sd.Value)

	_, err = reg.Deserialize(SerializedData{Value: "lots", TypeName: TypeFloat}, nil)
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestBoolCodex(t *testing.T) {
	reg := newTestRegistry()

	for in, want := range map[string]bool{"true": true, "TRUE": true, "1": true, "false": false, "False": false, "0": false} {
		v, err := reg.Deserialize(SerializedData{Value: in, TypeName: TypeBool}, nil)
		require.NoError(t, err, in)
		assert.Equal(t, want, v, in)
	}

	_, err := reg.Deserialize(SerializedData{Value: "yes", TypeName: TypeBool}, nil)
	assert.ErrorIs(t, err, ErrSerialization)

	sd, err := reg.Serialize(false, TypeBool)
	require.NoError(t, err)
	assert.Equal(t, "false", sd.Value)
}

func TestTimedeltaCodex(t *testing.T) {
	reg := newTestRegistry()

	v, err := reg.Deserialize(SerializedData{Value: "1h30m", TypeName: "duration"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, v)

	sd, err := reg.Serialize(90*time.Second, TypeTimedelta)
	require.NoError(t, err)
	assert.Equal(t, "90s", sd.Value)

	back, err := reg.Deserialize(sd, nil)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, back)

	_, err = reg.Deserialize(SerializedData{Value: "soon", TypeName: TypeTimedelta}, nil)
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestTimedeltaCodex_Exact(t *testing.T) {
	reg := newTestRegistry()

	for _, d := range []time.Duration{
		1000*7*24*time.Hour + time.Nanosecond,
		time.Duration(1<<63 - 1),
		1500 * time.Millisecond,
	} {
		sd, err := reg.Serialize(d, TypeTimedelta)
		require.NoError(t, err)
		back, err := reg.Deserialize(sd, nil)
		require.NoError(t, err)
		assert.Equal(t, d, back, sd.Value)
	}
}

func TestTimedeltaCodex_Negative(t *testing.T) {
	reg := newTestRegistry()
	c, err := reg.Lookup(TypeTimedelta)
	require.NoError(t, err)

	assert.False(t, c.Accepts(-5*time.Second))

	_, err = reg.Serialize(-5*time.Second, TypeTimedelta)
	var serr *SerializationError
	assert.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, ErrValueType)
}

func TestMemberCodex(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()

	tests := []struct {
		in   string
		want uint64
	}{
		{"<@200000000000000002>", aliceID},
		{"<@!200000000000000002>", aliceID},
		{"200000000000000001", bobID},
		{"alice#0001", aliceID},
		{"Al", aliceID},
		{"ALICE", aliceID},
		{"@bob", bobID},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := reg.Deserialize(SerializedData{Value: tt.in, TypeName: TypeMember}, g)
			require.NoError(t, err)
			m, ok := v.(*guild.Member)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.ID)
		})
	}

	for _, bad := range []string{"nobody", "<@999999999999999999>", "alice#0002"} {
		_, err := reg.Deserialize(SerializedData{Value: bad, TypeName: TypeMember}, g)
		assert.ErrorIs(t, err, ErrSerialization, bad)
	}

	alice, _ := g.Member(aliceID)
	sd, err := reg.Serialize(alice, "user")
	require.NoError(t, err)
	assert.Equal(t, "<@200000000000000002>", sd.Value)
}

func TestEntityCodex_RequiresGuild(t *testing.T) {
	reg := newTestRegistry()

	for _, typeName := range []string{TypeMember, TypeChannel, TypeRole} {
		_, err := reg.Deserialize(SerializedData{Value: "Admins", TypeName: typeName}, nil)
		assert.ErrorIs(t, err, errNoGuild, typeName)
	}
}

func TestChannelCodex(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()

	for _, in := range []string{"<#300000000000000001>", "300000000000000001", "general", "#General"} {
		v, err := reg.Deserialize(SerializedData{Value: in, TypeName: "channel"}, g)
		require.NoError(t, err, in)
		assert.Equal(t, generalID, v.(*guild.Channel).ID, in)
	}

	_, err := reg.Deserialize(SerializedData{Value: "#random", TypeName: TypeChannel}, g)
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestRoleCodex(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()

	for _, in := range []string{"<@&400000000000000002>", "mods", "@Mods", "400000000000000002"} {
		v, err := reg.Deserialize(SerializedData{Value: in, TypeName: TypeRole}, g)
		require.NoError(t, err, in)
		assert.Equal(t, modsID, v.(*guild.Role).ID, in)
	}

	g.AddRole(&guild.Role{ID: 400000000000000009, Name: "@everyone"})
	v, err := reg.Deserialize(SerializedData{Value: "@everyone", TypeName: TypeRole}, g)
	require.NoError(t, err)
	assert.Equal(t, uint64(400000000000000009), v.(*guild.Role).ID)

	g.RemoveRole(modsID)
	_, err = reg.Deserialize(SerializedData{Value: "<@&400000000000000002>", TypeName: TypeRole}, g)
	assert.ErrorIs(t, err, ErrSerialization, "deleted roles no longer resolve")
}

func TestEmojiCodex(t *testing.T) {
	reg := newTestRegistry()
	g := newTestGuild()

	t.Run("custom", func(t *testing.T) {
		v, err := reg.Deserialize(SerializedData{Value: "<a:party:500000000000000001>", TypeName: TypeEmoji}, g)
		require.NoError(t, err)
		e := v.(guild.Emoji)
		assert.True(t, e.IsCustom())
		assert.Equal(t, guildID, e.GuildID)

		sd, err := reg.Serialize(e, TypeEmoji)
		require.NoError(t, err)
		assert.Equal(t, "<a:party:500000000000000001>", sd.Value)
	})

	t.Run("foreign custom", func(t *testing.T) {
		_, err := reg.Deserialize(SerializedData{Value: "<:other:500000000000000777>", TypeName: TypeEmoji}, g)
		assert.ErrorIs(t, err, ErrSerialization)
	})

	t.Run("unicode", func(t *testing.T) {
		v, err := reg.Deserialize(SerializedData{Value: "👍", TypeName: TypeEmoji}, nil)
		require.NoError(t, err)
		e := v.(guild.Emoji)
		assert.False(t, e.IsCustom())

		sd, err := reg.Serialize(e, TypeEmoji)
		require.NoError(t, err)
		assert.Equal(t, "👍", sd.Value)
	})

	t.Run("not an emoji", func(t *testing.T) {
		_, err := reg.Deserialize(SerializedData{Value: "thumbs", TypeName: TypeEmoji}, g)
		assert.ErrorIs(t, err, ErrSerialization)
	})
}
