// Package migrator provides functionality to manage database schema migrations.
//
// Features:
// - Supports both forward (`up`) and rollback (`down`) migrations
// - Models each migration as declarative table definitions that render their own DDL
// - Validates the revision chain at load time (single base, single head, no cycles)
// - Tracks applied revisions and chronological migration history in dedicated tables
// - Executes migration plans to a target revision, "head" or "base"
// - Serializes runs through a single-row lock record
package migrator
