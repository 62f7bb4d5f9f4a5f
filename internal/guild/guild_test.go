// ABOUTME: Tests for guild snapshots, directory loading and emoji helpers
// ABOUTME: Uses testify for assertions like the rest of the module

package guild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSnapshotYAML = `
guilds:
  - id: 100000000000000001
    name: Alpha
    members:
      - {id: 200000000000000002, name: alice, discriminator: "0001", nick: Al}
      - {id: 200000000000000001, name: bob, discriminator: "0002"}
    channels:
      - {id: 300000000000000001, name: general}
    roles:
      - {id: 400000000000000001, name: Admins}
      - {id: 400000000000000002, name: Mods}
    emojis:
      - {id: 500000000000000001, name: party, animated: true}
  - id: 100000000000000002
    name: Beta
`

func TestParseDirectory(t *testing.T) {
	dir, err := ParseDirectory([]byte(testSnapshotYAML))
	require.NoError(t, err)

	all := dir.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].Name())
	assert.Equal(t, "Beta", all[1].Name())

	g, ok := dir.Guild(100000000000000001)
	require.True(t, ok)

	m, ok := g.Member(200000000000000002)
	require.True(t, ok)
	assert.Equal(t, "Al", m.DisplayName())
	assert.Equal(t, "<@200000000000000002>", m.Mention())

	members := g.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "bob", members[0].Name, "members are ordered by id")

	r, ok := g.Role(400000000000000001)
	require.True(t, ok)
	assert.Equal(t, "<@&400000000000000001>", r.Mention())

	c, ok := g.Channel(300000000000000001)
	require.True(t, ok)
	assert.Equal(t, "<#300000000000000001>", c.Mention())

	e, ok := g.Emoji(500000000000000001)
	require.True(t, ok)
	assert.Equal(t, "<a:party:500000000000000001>", EmojiFromCustom(g.ID(), e).String())

	_, ok = dir.Guild(42)
	assert.False(t, ok)
}

func TestParseDirectory_Errors(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		_, err := ParseDirectory([]byte("guilds:\n  - name: nope\n"))
		assert.Error(t, err)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := ParseDirectory([]byte("guilds:\n  - id: 1\n  - id: 1\n"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseDirectory([]byte("guilds: ["))
		assert.Error(t, err)
	})
}

func TestSnapshot_Remove(t *testing.T) {
	s := NewSnapshot(1, "g")
	s.AddMember(&Member{ID: 5, Name: "x"})
	s.AddRole(&Role{ID: 6, Name: "y"})

	s.RemoveMember(5)
	s.RemoveRole(6)

	_, ok := s.Member(5)
	assert.False(t, ok)
	assert.Empty(t, s.Roles())
}

func TestIsUnicodeEmoji(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"👍", true},
		{"👍🏽", true},
		{"👍️", true},
		{"", false},
		{"hello", false},
		{"a👍", false},
		{"👍 thumbs", false},
		{"👍👎", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnicodeEmoji(tt.in))
		})
	}
}

func TestEmoji_Equality(t *testing.T) {
	custom := Emoji{GuildID: 1, Name: "party", ID: 9}
	sameID := Emoji{Name: "renamed", ID: 9}
	unicodeA := Emoji{Name: "👍"}
	unicodeB := Emoji{Name: "👍️"}

	assert.True(t, custom.Equal(sameID))
	assert.False(t, custom.Equal(unicodeA))
	assert.True(t, unicodeA.Equal(unicodeB))
	assert.True(t, unicodeB.Matches("👍"))
	assert.True(t, custom.Matches("<:party:9>"))
	assert.False(t, custom.Matches("party"))
	assert.Equal(t, "👍", unicodeA.String())
	assert.False(t, unicodeA.IsCustom())
}
