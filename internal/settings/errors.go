// ABOUTME: Error values returned by the settings manager
// ABOUTME: Every caller-input error wraps ErrSettingsField so it can be reported back as-is

package settings

import (
	"errors"
	"fmt"
)

// ErrSettingsField marks a wrong owner, field name or path supplied by a caller.
var ErrSettingsField = errors.New("settings error")

var (
	// ErrUnknownOwner is returned when no settings were created for an owner.
	ErrUnknownOwner = fmt.Errorf("%w: can't find a cog with that name, is it active on this server?", ErrSettingsField)
	// ErrNoField is returned when a path names no field or mapping entry.
	ErrNoField = fmt.Errorf("%w: there is no field with that name", ErrSettingsField)
)
