// Package domain holds the core entities of the learning assessment and
// entitlement engine: plan tiers and their limit tables, per-period usage
// counters, vocabulary recall progress, and the timed assessment aggregate
// (sessions, question slots, answers, results).
//
// Entities carry their own validation and invariants but no persistence or
// orchestration logic; that lives in the store and service layers.
package domain
