// ABOUTME: Built-in codices for strings, integers, floats, booleans and durations
// ABOUTME: registerBuiltins wires these and the guild entity codices into a registry

package codex

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/2389/solon/internal/duration"
	"github.com/2389/solon/internal/guild"
)

// Canonical names of the built-in types.
const (
	TypeStr       = "str"
	TypeInt       = "int"
	TypeFloat     = "float"
	TypeBool      = "bool"
	TypeTimedelta = "timedelta"
	TypeMember    = "Member"
	TypeChannel   = "GuildChannel"
	TypeRole      = "Role"
	TypeEmoji     = "Emoji"
)

func registerBuiltins(r *Registry) error {
	builtins := []struct {
		codex Codex
		keys  []string
	}{
		{stringCodex{}, []string{TypeStr, "string"}},
		{intCodex{}, []string{TypeInt}},
		{floatCodex{}, []string{TypeFloat}},
		{boolCodex{}, []string{TypeBool}},
		{timedeltaCodex{}, []string{TypeTimedelta, "duration"}},
		{memberCodex{}, []string{TypeMember, "user"}},
		{channelCodex{}, []string{TypeChannel, "channel", "textchannel", "voicechannel", "categorychannel"}},
		{roleCodex{}, []string{TypeRole}},
		{emojiCodex{}, []string{TypeEmoji}},
	}

	for _, b := range builtins {
		for _, key := range b.keys {
			if err := r.Register(key, b.codex); err != nil {
				return fmt.Errorf("registering builtin %s: %w", b.codex.TypeName(), err)
			}
		}
	}
	return nil
}

type stringCodex struct{}

func (stringCodex) TypeName() string { return TypeStr }

// Accepts only valid UTF-8 so stored text reads back unchanged.
func (stringCodex) Accepts(v any) bool {
	s, ok := v.(string)
	return ok && utf8.ValidString(s)
}

func (c stringCodex) Serialize(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8", ErrValueType, s)
	}
	return s, nil
}

func (stringCodex) Deserialize(s string, _ guild.Guild) (any, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%q is not valid UTF-8", s)
	}
	return s, nil
}

type intCodex struct{}

func (intCodex) TypeName() string { return TypeInt }

func (intCodex) Accepts(v any) bool {
	_, ok := v.(int64)
	return ok
}

func (c intCodex) Serialize(v any) (string, error) {
	n, ok := v.(int64)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	return strconv.FormatInt(n, 10), nil
}

// Deserialize reads base 10 by default; 0x and 0b prefixes select hex and binary.
func (intCodex) Deserialize(s string, _ guild.Guild) (any, error) {
	return parseInt(s)
}

func parseInt(s string) (int64, error) {
	digits := s
	sign := ""
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		sign, digits = digits[:1], digits[1:]
	}

	base := 10
	lower := strings.ToLower(digits)
	switch {
	case strings.HasPrefix(lower, "0x"):
		base, digits = 16, digits[2:]
	case strings.HasPrefix(lower, "0b"):
		base, digits = 2, digits[2:]
	}
	if digits == "" || strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		return 0, fmt.Errorf("%q is not an integer", s)
	}

	n, err := strconv.ParseInt(sign+digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer: %w", s, err)
	}
	return n, nil
}

type floatCodex struct{}

func (floatCodex) TypeName() string { return TypeFloat }

func (floatCodex) Accepts(v any) bool {
	_, ok := v.(float64)
	return ok
}

func (c floatCodex) Serialize(v any) (string, error) {
	f, ok := v.(float64)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func (floatCodex) Deserialize(s string, _ guild.Guild) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number: %w", s, err)
	}
	return f, nil
}

type boolCodex struct{}

func (boolCodex) TypeName() string { return TypeBool }

func (boolCodex) Accepts(v any) bool {
	_, ok := v.(bool)
	return ok
}

func (c boolCodex) Serialize(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	return strconv.FormatBool(b), nil
}

func (boolCodex) Deserialize(s string, _ guild.Guild) (any, error) {
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return nil, fmt.Errorf("cannot deserialize %s into a bool", s)
}

type timedeltaCodex struct{}

func (timedeltaCodex) TypeName() string { return TypeTimedelta }

// Accepts only non-negative durations; the shorthand has no sign.
func (timedeltaCodex) Accepts(v any) bool {
	d, ok := v.(time.Duration)
	return ok && d >= 0
}

func (c timedeltaCodex) Serialize(v any) (string, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return "", mismatch(c.TypeName(), v)
	}
	if d < 0 {
		return "", fmt.Errorf("%w: negative duration %s", ErrValueType, d)
	}
	return duration.Format(d), nil
}

func (timedeltaCodex) Deserialize(s string, _ guild.Guild) (any, error) {
	return duration.Parse(s)
}
