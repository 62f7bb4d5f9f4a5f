// ABOUTME: Codices for guild entities: members, channels, roles and emoji
// ABOUTME: Resolve ids and mentions first, then fall back to case-insensitive name matching

package codex

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/2389/solon/internal/guild"
)

var errNoGuild = errors.New("a guild context is required")

var (
	idPattern             = regexp.MustCompile(`^([0-9]{15,21})$`)
	memberMentionPattern  = regexp.MustCompile(`^<@!?([0-9]+)>$`)
	channelMentionPattern = regexp.MustCompile(`^<#!?([0-9]+)>$`)
	roleMentionPattern    = regexp.MustCompile(`^<@&([0-9]+)>$`)
	emojiTagPattern       = regexp.MustCompile(`^<a?:[a-zA-Z0-9_]+:([0-9]+)>$`)
)

// matchID extracts an entity id from a raw id or the given mention syntax.
func matchID(s string, mention *regexp.Regexp) (uint64, bool) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		m = mention.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// sameName compares names under Unicode case folding. Casers are stateful,
// so each call gets its own.
func sameName(a, b string) bool {
	if a == "" {
		return false
	}
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// entityKey identifies a guild entity independently of the pointer the
// guild cache currently holds for it.
type entityKey struct {
	kind byte
	id   uint64
}

type emojiKey string

// identity maps a value to the comparable key used for equality inside
// composites. Entities compare by id, emoji by Emoji.Identity, anything
// else by value.
func identity(v any) any {
	if IsNull(v) {
		return nil
	}
	switch x := v.(type) {
	case *guild.Member:
		return entityKey{kind: 'm', id: x.ID}
	case *guild.Channel:
		return entityKey{kind: 'c', id: x.ID}
	case *guild.Role:
		return entityKey{kind: 'r', id: x.ID}
	case guild.Emoji:
		return emojiKey(x.Identity())
	}
	return v
}

type memberCodex struct{}

func (memberCodex) TypeName() string { return TypeMember }

func (memberCodex) Accepts(v any) bool {
	_, ok := v.(*guild.Member)
	return ok
}

func (c memberCodex) Serialize(v any) (string, error) {
	m, ok := v.(*guild.Member)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	return m.Mention(), nil
}

func (memberCodex) Deserialize(s string, g guild.Guild) (any, error) {
	if g == nil {
		return nil, errNoGuild
	}
	s = strings.TrimSpace(s)

	if id, ok := matchID(s, memberMentionPattern); ok {
		if m, found := g.Member(id); found {
			return m, nil
		}
		return nil, fmt.Errorf("no member with id %d", id)
	}

	name := strings.TrimPrefix(s, "@")
	members := g.Members()

	// name#1234 identifies an account exactly.
	if i := strings.LastIndex(name, "#"); i > 0 && len(name)-i == 5 && strings.ContainsAny(name[i+1:], "0123456789") {
		base, disc := name[:i], name[i+1:]
		for _, m := range members {
			if sameName(m.Name, base) && m.Discriminator == disc {
				return m, nil
			}
		}
	}

	for _, m := range members {
		if sameName(m.Nick, name) || sameName(m.Name, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("cannot deserialize %s into a member", s)
}

type channelCodex struct{}

func (channelCodex) TypeName() string { return TypeChannel }

func (channelCodex) Accepts(v any) bool {
	_, ok := v.(*guild.Channel)
	return ok
}

func (c channelCodex) Serialize(v any) (string, error) {
	ch, ok := v.(*guild.Channel)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	return ch.Mention(), nil
}

func (channelCodex) Deserialize(s string, g guild.Guild) (any, error) {
	if g == nil {
		return nil, errNoGuild
	}
	s = strings.TrimSpace(s)

	if id, ok := matchID(s, channelMentionPattern); ok {
		if ch, found := g.Channel(id); found {
			return ch, nil
		}
		return nil, fmt.Errorf("no channel with id %d", id)
	}

	name := strings.TrimPrefix(s, "#")
	for _, ch := range g.Channels() {
		if sameName(ch.Name, name) {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("cannot deserialize %s into a channel", s)
}

type roleCodex struct{}

func (roleCodex) TypeName() string { return TypeRole }

func (roleCodex) Accepts(v any) bool {
	_, ok := v.(*guild.Role)
	return ok
}

func (c roleCodex) Serialize(v any) (string, error) {
	r, ok := v.(*guild.Role)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	return r.Mention(), nil
}

func (roleCodex) Deserialize(s string, g guild.Guild) (any, error) {
	if g == nil {
		return nil, errNoGuild
	}
	s = strings.TrimSpace(s)

	if id, ok := matchID(s, roleMentionPattern); ok {
		if r, found := g.Role(id); found {
			return r, nil
		}
		return nil, fmt.Errorf("no role with id %d", id)
	}

	// "@everyone" is a real role name, so try the literal text before stripping '@'.
	roles := g.Roles()
	for _, candidate := range []string{s, strings.TrimPrefix(s, "@")} {
		for _, r := range roles {
			if sameName(r.Name, candidate) {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("cannot deserialize %s into a role", s)
}

type emojiCodex struct{}

func (emojiCodex) TypeName() string { return TypeEmoji }

func (emojiCodex) Accepts(v any) bool {
	_, ok := v.(guild.Emoji)
	return ok
}

func (c emojiCodex) Serialize(v any) (string, error) {
	e, ok := v.(guild.Emoji)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	return e.String(), nil
}

func (emojiCodex) Deserialize(s string, g guild.Guild) (any, error) {
	s = strings.TrimSpace(s)

	if id, ok := matchID(s, emojiTagPattern); ok {
		if g == nil {
			return nil, errNoGuild
		}
		if e, found := g.Emoji(id); found {
			return guild.EmojiFromCustom(g.ID(), e), nil
		}
		return nil, fmt.Errorf("cannot deserialize %s into an emoji, only custom emojis from this guild are supported", s)
	}

	if guild.IsUnicodeEmoji(s) {
		return guild.Emoji{Name: s}, nil
	}
	return nil, fmt.Errorf("cannot deserialize %s into an emoji", s)
}
