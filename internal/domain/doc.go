// Package domain contains the lifecycle model of the platform: the four
// aggregate roots (Project, AgentExecution, Deployment, Subscription), their
// guarded state machines, and the value objects they are built from.
//
// Aggregates are immutable: every mutation method is declared on a value
// receiver and returns a new, fully-populated instance. The original is never
// altered, so a loaded snapshot stays valid for concurrent readers. State
// changes are permitted only when the (current, requested) pair appears in the
// aggregate's transition table; anything else fails with an
// INVALID_TRANSITION error rather than silently no-opping.
//
// Entities reference each other by identifier only. Persistence, transport
// and provisioning are external collaborators reached through ports declared
// where they are consumed.
package domain
