// Package statements converts a committed graph version into an ordered
// sequence of idempotent database mutation statements. Every element carries
// a version-scoped identifier so multiple versions of one graph coexist in
// the store without collision. The generator never talks to the database;
// it returns data for an external executor.
package statements

import (
	"fmt"

	"plangraph/domain/versioning"
)

// Operation identifies the kind of mutation a statement performs
type Operation string

const (
	OperationUpsertNode Operation = "upsert_node"
	OperationUpsertEdge Operation = "upsert_edge"
)

// Statement is a single mutation. Re-applying a statement is safe: each one
// is an upsert keyed by the version-scoped id, never a blind insert.
type Statement struct {
	Operation       Operation              `json:"operation"`
	VersionScopedID string                 `json:"version_scoped_id"`
	Payload         map[string]interface{} `json:"payload"`
}

// ScopedID derives the version-scoped identifier for a graph element
func ScopedID(graphID string, version int, elementID string) string {
	return fmt.Sprintf("%s:v%d:%s", graphID, version, elementID)
}

// Generate produces the mutation statements for one graph version. Node
// statements come before edge statements so endpoints exist before the edges
// referencing them; within each group, statements are ordered by element id
// so generation is deterministic.
func Generate(v *versioning.GraphVersion) []Statement {
	snapshot := v.Snapshot
	nodes := snapshot.Nodes()
	edges := snapshot.Edges()
	stmts := make([]Statement, 0, len(nodes)+len(edges))

	for _, node := range nodes {
		payload := map[string]interface{}{
			"graph_id": v.GraphID,
			"version":  v.Version,
			"id":       node.ID,
			"label":    node.Label,
			"type":     string(node.Type),
		}
		if len(node.Attributes) > 0 {
			payload["attributes"] = map[string]interface{}(node.Attributes)
		}
		stmts = append(stmts, Statement{
			Operation:       OperationUpsertNode,
			VersionScopedID: ScopedID(v.GraphID, v.Version, node.ID),
			Payload:         payload,
		})
	}

	for _, edge := range edges {
		payload := map[string]interface{}{
			"graph_id":     v.GraphID,
			"version":      v.Version,
			"id":           edge.ID,
			"source":       ScopedID(v.GraphID, v.Version, edge.Source),
			"target":       ScopedID(v.GraphID, v.Version, edge.Target),
			"relationship": string(edge.Relationship),
		}
		if len(edge.Attributes) > 0 {
			payload["attributes"] = map[string]interface{}(edge.Attributes)
		}
		stmts = append(stmts, Statement{
			Operation:       OperationUpsertEdge,
			VersionScopedID: ScopedID(v.GraphID, v.Version, edge.ID),
			Payload:         payload,
		})
	}

	return stmts
}
