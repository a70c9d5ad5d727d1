// Package ports declares the interfaces between the application core and its
// collaborators. The application doesn't know about the implementations.
package ports

import (
	"context"

	"plangraph/domain/core"
	"plangraph/domain/statements"
	"plangraph/domain/versioning"
)

// LatestVersion selects the most recent version in Get
const LatestVersion = 0

// VersionStore owns every graph's version chain. It is the only component
// permitted to allocate version numbers. Commits for one graph id are
// mutually exclusive; commits for different graph ids proceed independently.
type VersionStore interface {
	// Commit allocates the next version number for the graph (1 if no chain
	// exists), appends a version record and returns it
	Commit(ctx context.Context, graphID string, snapshot *core.GraphModel, source versioning.Source) (*versioning.GraphVersion, error)

	// Update appends the next version to an existing chain. Fails with a not
	// found error when the chain does not exist or was concurrently deleted;
	// it never creates one.
	Update(ctx context.Context, graphID string, snapshot *core.GraphModel, source versioning.Source) (*versioning.GraphVersion, error)

	// Get returns the requested version, or the latest when version is
	// LatestVersion. Fails with a not found error for unknown graphs or
	// versions beyond the chain length.
	Get(ctx context.Context, graphID string, version int) (*versioning.GraphVersion, error)

	// List enumerates chain summaries for all graphs
	List(ctx context.Context) ([]versioning.ChainSummary, error)

	// Delete removes a graph's entire chain; irreversible
	Delete(ctx context.Context, graphID string) error
}

// StatementExecutor applies generated mutation statements to the external
// graph database
type StatementExecutor interface {
	// Execute applies the statements in order. Statements are idempotent
	// upserts, so re-execution after a partial failure is safe.
	Execute(ctx context.Context, stmts []statements.Statement) error

	// DeleteGraph removes every persisted version of a graph
	DeleteGraph(ctx context.Context, graphID string) error

	// Ping verifies connectivity
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close(ctx context.Context) error
}

// EventPublisher is the interface for emitting change notifications to the
// transport collaborator
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event interface{}) error
	Close() error
}
