// Package service contains the use-case orchestrators for AppForge.
//
// Each orchestrator follows the same shape: validate input, load the
// current aggregate snapshot through a repository port, invoke exactly one
// transition or mutation on it, persist the returned snapshot, and emit a
// lifecycle event. Aggregates are immutable values, so a failed transition
// never leaves a half-mutated entity behind.
//
// Repository interfaces are defined in this package and implemented in
// internal/repository; the services never see a concrete store.
//
// # Concurrency
//
// Services are safe for concurrent use. Note that persistence follows a
// read-modify-write pattern with no optimistic concurrency token: two
// concurrent requests against the same aggregate id can race and the later
// write wins. See DESIGN.md for the rationale.
package service
