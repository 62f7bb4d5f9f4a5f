// ABOUTME: Tenant context types: members, channels, roles and the Guild resolver interface
// ABOUTME: Entities render to the platform's canonical mention syntax

package guild

import (
	"fmt"
	"strconv"
)

// Member is a user as seen inside one guild.
type Member struct {
	ID            uint64
	Name          string
	Discriminator string
	Nick          string
}

// Mention returns the canonical <@id> form.
func (m *Member) Mention() string {
	return fmt.Sprintf("<@%d>", m.ID)
}

// DisplayName returns the nickname when set, otherwise the account name.
func (m *Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.Name
}

func (m *Member) String() string {
	return m.DisplayName()
}

// Channel is any guild channel (text, voice or category).
type Channel struct {
	ID   uint64
	Name string
}

// Mention returns the canonical <#id> form.
func (c *Channel) Mention() string {
	return fmt.Sprintf("<#%d>", c.ID)
}

func (c *Channel) String() string {
	return "#" + c.Name
}

// Role is a guild role.
type Role struct {
	ID   uint64
	Name string
}

// Mention returns the canonical <@&id> form.
func (r *Role) Mention() string {
	return fmt.Sprintf("<@&%d>", r.ID)
}

func (r *Role) String() string {
	return "@" + r.Name
}

// Guild is the tenant context entity lookups are resolved against.
// Implementations return live references; callers must not mutate them.
type Guild interface {
	ID() uint64
	Name() string

	Member(id uint64) (*Member, bool)
	Channel(id uint64) (*Channel, bool)
	Role(id uint64) (*Role, bool)
	Emoji(id uint64) (*CustomEmoji, bool)

	Members() []*Member
	Channels() []*Channel
	Roles() []*Role
	Emojis() []*CustomEmoji
}

// Resolver returns the live Guild for a tenant identifier.
type Resolver interface {
	Guild(id uint64) (Guild, bool)
}

// ParseID parses a decimal guild or entity id.
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing id %q: %w", s, err)
	}
	return id, nil
}
