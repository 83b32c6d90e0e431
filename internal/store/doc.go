// Package store defines the persistence interfaces consumed by the engine's
// services, the shared error taxonomy, and transaction plumbing.
//
// The engine requires only a few capabilities from its relational store:
// read-one-row-by-key, upsert-with-conflict-key, one atomic-increment
// statement (the usage counters), and range queries filtered and ordered by
// column. PostgreSQL implementations live in internal/platform/postgres.
package store
