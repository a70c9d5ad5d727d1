// Package versioning defines the version records that form a graph's linear
// history. Version numbers start at 1 and are allocated exclusively by the
// version store; records are never mutated after creation.
package versioning

import (
	"time"

	"plangraph/domain/core"
)

// Source tags the origin of a version
type Source string

const (
	// SourceLLMGenerated marks a version created from a machine-generated plan
	SourceLLMGenerated Source = "llm_generated"

	// SourceUserEdited marks a version created from an interactive edit
	SourceUserEdited Source = "user_edited"
)

// Valid reports whether the source is one of the known origins
func (s Source) Valid() bool {
	return s == SourceLLMGenerated || s == SourceUserEdited
}

// GraphVersion is an immutable snapshot in a graph's history
type GraphVersion struct {
	GraphID   string           `json:"graph_id"`
	Version   int              `json:"version"`
	Source    Source           `json:"source"`
	CreatedAt time.Time        `json:"created_at"`
	Snapshot  *core.GraphModel `json:"-"`
}

// ChainSummary describes one graph's version chain for enumeration
type ChainSummary struct {
	GraphID       string    `json:"graph_id"`
	LatestVersion int       `json:"latest_version"`
	TotalVersions int       `json:"total_versions"`
	CreatedAt     time.Time `json:"created_at"`
	LatestSource  Source    `json:"source"`
}
