// ABOUTME: Loads guild snapshots from a YAML file for offline tooling and tests
// ABOUTME: Mirrors the shape of the platform's guild cache: members, channels, roles, emojis

package guild

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type snapshotFile struct {
	Guilds []guildDoc `yaml:"guilds"`
}

type guildDoc struct {
	ID       uint64      `yaml:"id"`
	Name     string      `yaml:"name"`
	Members  []memberDoc `yaml:"members"`
	Channels []entityDoc `yaml:"channels"`
	Roles    []entityDoc `yaml:"roles"`
	Emojis   []emojiDoc  `yaml:"emojis"`
}

type memberDoc struct {
	ID            uint64 `yaml:"id"`
	Name          string `yaml:"name"`
	Discriminator string `yaml:"discriminator"`
	Nick          string `yaml:"nick"`
}

type entityDoc struct {
	ID   uint64 `yaml:"id"`
	Name string `yaml:"name"`
}

type emojiDoc struct {
	ID       uint64 `yaml:"id"`
	Name     string `yaml:"name"`
	Animated bool   `yaml:"animated"`
}

// LoadDirectory reads a snapshot file and returns a Directory of its guilds.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guild snapshot: %w", err)
	}
	return ParseDirectory(data)
}

// ParseDirectory builds a Directory from YAML snapshot content.
func ParseDirectory(data []byte) (*Directory, error) {
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing guild snapshot: %w", err)
	}

	dir := NewDirectory()
	for _, gd := range file.Guilds {
		if gd.ID == 0 {
			return nil, fmt.Errorf("guild %q has no id", gd.Name)
		}
		if _, exists := dir.Guild(gd.ID); exists {
			return nil, fmt.Errorf("guild %d listed twice", gd.ID)
		}

		s := NewSnapshot(gd.ID, gd.Name)
		for _, m := range gd.Members {
			s.AddMember(&Member{ID: m.ID, Name: m.Name, Discriminator: m.Discriminator, Nick: m.Nick})
		}
		for _, c := range gd.Channels {
			s.AddChannel(&Channel{ID: c.ID, Name: c.Name})
		}
		for _, r := range gd.Roles {
			s.AddRole(&Role{ID: r.ID, Name: r.Name})
		}
		for _, e := range gd.Emojis {
			s.AddEmoji(&CustomEmoji{ID: e.ID, Name: e.Name, Animated: e.Animated})
		}
		dir.Add(s)
	}
	return dir, nil
}
