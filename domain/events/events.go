// Package events defines the change-notification events handed to the
// transport collaborator after a commit.
package events

import (
	"time"

	"plangraph/domain/versioning"
)

// Event topic constants
const (
	TopicGraphUpdated   = "plangraph.graph.updated"
	TopicGraphPersisted = "plangraph.graph.persisted"
	TopicGraphDeleted   = "plangraph.graph.deleted"
)

// GraphChanged announces a committed version. It is published as soon as the
// commit exists, before the database write resolves.
type GraphChanged struct {
	GraphID   string            `json:"graph_id"`
	Version   int               `json:"version"`
	Source    versioning.Source `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
}

// GraphPersisted reports the outcome of a version's background persistence.
// Persisted is false when the database write failed or timed out; the commit
// itself always stands.
type GraphPersisted struct {
	GraphID   string    `json:"graph_id"`
	Version   int       `json:"version"`
	Persisted bool      `json:"persisted"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GraphDeleted reports the removal of an entire version chain
type GraphDeleted struct {
	GraphID   string    `json:"graph_id"`
	Timestamp time.Time `json:"timestamp"`
}
