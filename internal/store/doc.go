// ABOUTME: Package documentation for the durable record store
// ABOUTME: Describes the Store interface, its SQLite and mock implementations and the schema

// Package store provides durable persistence for settings records.
//
// # Architecture
//
// Store is a small key-value interface: every record is a flat string map
// saved under an owner key such as "moderation.100000000000000001".
// Implementations:
//
//   - SQLiteStore: production backend on SQLite
//   - MockStore: in-memory backend for unit tests
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// Two drivers are supported. DriverModernc ("sqlite", modernc.org/sqlite) is
// pure Go and the default; DriverCGo ("sqlite3", mattn/go-sqlite3) needs cgo.
//
// Record fields are stored as JSON text in records.fields_json, along with
// the id of the save cycle that wrote them.
//
// # Error Handling
//
//   - ErrNotFound: requested record does not exist
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
// for integration tests with real SQLite.
//
// # Migrations
//
// The schema is created on open and columns added later are applied by
// runMigrations, which checks pragma_table_info before each ALTER TABLE.
package store
