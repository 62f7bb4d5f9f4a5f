// Package guild models the tenant ("guild") context that settings values are
// resolved against.
//
// The chat-platform connection is not part of this module. Anything that can
// answer id and name lookups for members, channels, roles and custom emoji can
// implement Guild; Snapshot is the in-memory implementation used by the CLI
// (loaded from YAML via LoadDirectory) and by tests.
//
// Emoji is a value type rather than a guild entity: it refers either to a
// guild custom emoji or to a Unicode emoji character sequence.
package guild
