// ABOUTME: Package codex converts settings values to and from operator-typed text
// ABOUTME: Covers primitives, guild entities and memoized list, mapping and structure types

// Package codex is the serialization engine behind guild settings.
//
// A Registry maps case-insensitive type names to codices. Each codex turns a
// Go value into text and back; entity codices resolve ids, mentions and names
// against the guild supplied at deserialization time. An empty string is the
// null sentinel for every type.
//
// Composite types are built through the registry and memoized by shape, so
// asking twice for a list of roles returns the same *ListType:
//
//	roles, _ := reg.List(codex.TypeRole)
//	thresholds, _ := reg.Mapping(codex.TypeInt, codex.TypeRole)
//	sample, _ := reg.Structure("sample", map[string]codex.SerializedData{
//		"prefix": {Value: "!", TypeName: codex.TypeStr},
//	})
package codex
