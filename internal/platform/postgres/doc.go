// Package postgres implements the store interfaces against PostgreSQL using
// database/sql with the pgx stdlib driver. All SQL lives here; the service
// layer only sees the interfaces and error taxonomy of internal/store.
//
// Two schema-level guarantees the implementations rely on:
//   - usage_counters increments are a single INSERT ... ON CONFLICT DO
//     UPDATE statement, making per-user counter updates linearizable;
//   - a partial unique index allows at most one in_progress exam session
//     per user, backstopping the check-then-insert in the exam service.
package postgres
