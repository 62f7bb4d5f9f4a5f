// ABOUTME: In-memory Guild implementation and a Directory resolving guild ids
// ABOUTME: Snapshots are safe for concurrent reads while the platform layer mutates them

package guild

import (
	"sort"
	"sync"
)

// Snapshot is a mutable, thread-safe Guild backed by maps.
// Enumeration results are ordered by id so name fallbacks are deterministic.
type Snapshot struct {
	mu       sync.RWMutex
	id       uint64
	name     string
	members  map[uint64]*Member
	channels map[uint64]*Channel
	roles    map[uint64]*Role
	emojis   map[uint64]*CustomEmoji
}

var _ Guild = (*Snapshot)(nil)

// NewSnapshot creates an empty guild.
func NewSnapshot(id uint64, name string) *Snapshot {
	return &Snapshot{
		id:       id,
		name:     name,
		members:  make(map[uint64]*Member),
		channels: make(map[uint64]*Channel),
		roles:    make(map[uint64]*Role),
		emojis:   make(map[uint64]*CustomEmoji),
	}
}

func (s *Snapshot) ID() uint64   { return s.id }
func (s *Snapshot) Name() string { return s.name }

// AddMember inserts or replaces a member.
func (s *Snapshot) AddMember(m *Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}

// AddChannel inserts or replaces a channel.
func (s *Snapshot) AddChannel(c *Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[c.ID] = c
}

// AddRole inserts or replaces a role.
func (s *Snapshot) AddRole(r *Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
}

// AddEmoji inserts or replaces a custom emoji.
func (s *Snapshot) AddEmoji(e *CustomEmoji) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emojis[e.ID] = e
}

// RemoveMember drops a member, e.g. after they leave the guild.
func (s *Snapshot) RemoveMember(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, id)
}

// RemoveRole drops a role.
func (s *Snapshot) RemoveRole(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, id)
}

func (s *Snapshot) Member(id uint64) (*Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	return m, ok
}

func (s *Snapshot) Channel(id uint64) (*Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[id]
	return c, ok
}

func (s *Snapshot) Role(id uint64) (*Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	return r, ok
}

func (s *Snapshot) Emoji(id uint64) (*CustomEmoji, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.emojis[id]
	return e, ok
}

func (s *Snapshot) Members() []*Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.members)
}

func (s *Snapshot) Channels() []*Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.channels)
}

func (s *Snapshot) Roles() []*Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.roles)
}

func (s *Snapshot) Emojis() []*CustomEmoji {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.emojis)
}

func sortedValues[T any](m map[uint64]T) []T {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// Directory maps guild ids to live guilds.
type Directory struct {
	mu     sync.RWMutex
	guilds map[uint64]Guild
}

var _ Resolver = (*Directory)(nil)

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{guilds: make(map[uint64]Guild)}
}

// Add registers g under its own id, replacing any previous guild.
func (d *Directory) Add(g Guild) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guilds[g.ID()] = g
}

// Guild returns the guild with the given id.
func (d *Directory) Guild(id uint64) (Guild, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.guilds[id]
	return g, ok
}

// All returns every guild ordered by id.
func (d *Directory) All() []Guild {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedValues(d.guilds)
}
