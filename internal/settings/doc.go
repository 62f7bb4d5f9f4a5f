// ABOUTME: Package documentation for per-owner guild settings
// ABOUTME: Explains owner ids, dotted paths and the persistence cycle

// Package settings binds a named codex structure to an owner, typically one
// cog in one guild, and keeps it persisted.
//
// Owner ids have the form "<cog>.<guild id>" (see OwnerID). Create builds the
// owner's structure from field defaults, overlays whatever was stored under
// the owner id, and registers a pre-save hook that stages the flattened
// settings into the database before every save cycle.
//
// Paths passed to Get, Set, SetText and TypeName name a field directly or,
// as "field.key", one entry of a mapping-valued field. The key text is parsed
// with the mapping's key type in the owner's guild, so "thresholds.5" and
// "roles.@Admins" both work.
package settings
