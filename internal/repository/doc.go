// Package repository contains data access implementations for AppForge.
//
// Repositories provide persistence operations for domain aggregates,
// abstracting the underlying data stores.
//
// # Architecture
//
// Repository interfaces are defined at the service layer (consumer-defined
// interfaces). This package contains the concrete implementations.
//
// # Data Stores
//
// The system uses two specialized data stores:
//   - PostgreSQL: Transactional state (projects, executions, deployments,
//     subscriptions)
//   - ClickHouse: The append-only lifecycle event audit log
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use.
// Connection pools are managed at the database layer.
package repository
