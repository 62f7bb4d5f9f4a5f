// ABOUTME: Emoji values covering both guild custom emoji and Unicode emoji
// ABOUTME: Unicode recognition uses gomoji and tolerates trailing modifier code points

package guild

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
)

// CustomEmoji is an emoji uploaded to a guild.
type CustomEmoji struct {
	ID       uint64
	Name     string
	Animated bool
}

// Emoji is a settings value referring to either a custom emoji (ID != 0)
// or a Unicode emoji (Name holds the character sequence).
type Emoji struct {
	GuildID  uint64
	Name     string
	ID       uint64
	Animated bool
}

// EmojiFromCustom wraps a guild custom emoji as a value.
func EmojiFromCustom(guildID uint64, e *CustomEmoji) Emoji {
	return Emoji{GuildID: guildID, Name: e.Name, ID: e.ID, Animated: e.Animated}
}

// IsCustom reports whether e refers to a guild custom emoji.
func (e Emoji) IsCustom() bool {
	return e.ID != 0
}

// String renders the tag form for custom emoji and the raw character otherwise.
func (e Emoji) String() string {
	if !e.IsCustom() {
		return e.Name
	}
	if e.Animated {
		return fmt.Sprintf("<a:%s:%d>", e.Name, e.ID)
	}
	return fmt.Sprintf("<:%s:%d>", e.Name, e.ID)
}

// Equal compares custom emoji by id and Unicode emoji by character,
// ignoring a trailing variation selector on either side.
func (e Emoji) Equal(other Emoji) bool {
	if e.IsCustom() || other.IsCustom() {
		return e.ID == other.ID
	}
	return trimModifiers(e.Name) == trimModifiers(other.Name)
}

// Identity returns a comparable key that is equal for emoji Equal reports equal.
func (e Emoji) Identity() string {
	if e.IsCustom() {
		return fmt.Sprintf(":%d", e.ID)
	}
	return trimModifiers(e.Name)
}

// Matches compares e against raw text as typed or as received in a reaction.
func (e Emoji) Matches(s string) bool {
	if e.IsCustom() {
		return e.String() == s
	}
	return trimModifiers(e.Name) == trimModifiers(s)
}

// IsUnicodeEmoji reports whether s is exactly one Unicode emoji, optionally
// followed by variation selectors, skin tone modifiers or combining marks.
func IsUnicodeEmoji(s string) bool {
	if s == "" {
		return false
	}
	// The table may only know the bare form, so retry without trailing modifiers.
	for _, candidate := range []string{s, trimModifiers(s)} {
		found := gomoji.FindAll(candidate)
		if len(found) == 0 {
			continue
		}
		rest, ok := strings.CutPrefix(candidate, found[0].Character)
		if ok && strings.TrimFunc(rest, isModifier) == "" {
			return true
		}
	}
	return false
}

func trimModifiers(s string) string {
	return strings.TrimRightFunc(s, isModifier)
}

func isModifier(r rune) bool {
	switch {
	case r == '\uFE0E' || r == '\uFE0F':
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	}
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r)
}
