package statements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plangraph/domain/core"
	"plangraph/domain/versioning"
)

func testVersion(t *testing.T) *versioning.GraphVersion {
	t.Helper()
	nodes := []core.Node{
		{ID: "n-obj", Type: core.NodeTypeObjective, Label: "Launch"},
		{ID: "n-task", Type: core.NodeTypeTask, Label: "Wireframe",
			Attributes: core.Attributes{"estimated_hours": 4.0}},
	}
	edges := []core.Edge{
		{ID: "e-1", Source: "n-obj", Target: "n-task", Relationship: core.RelationshipContains},
	}
	snapshot, err := core.NewGraphModel("graph-1", nodes, edges)
	require.NoError(t, err)
	return &versioning.GraphVersion{
		GraphID:   "graph-1",
		Version:   2,
		Source:    versioning.SourceUserEdited,
		CreatedAt: time.Now().UTC(),
		Snapshot:  snapshot,
	}
}

func TestScopedID(t *testing.T) {
	assert.Equal(t, "graph-1:v2:n-obj", ScopedID("graph-1", 2, "n-obj"))
}

func TestGenerate(t *testing.T) {
	v := testVersion(t)
	stmts := Generate(v)
	require.Len(t, stmts, 3)

	t.Run("nodes before edges, sorted by id", func(t *testing.T) {
		assert.Equal(t, OperationUpsertNode, stmts[0].Operation)
		assert.Equal(t, OperationUpsertNode, stmts[1].Operation)
		assert.Equal(t, OperationUpsertEdge, stmts[2].Operation)
		assert.Equal(t, "graph-1:v2:n-obj", stmts[0].VersionScopedID)
		assert.Equal(t, "graph-1:v2:n-task", stmts[1].VersionScopedID)
		assert.Equal(t, "graph-1:v2:e-1", stmts[2].VersionScopedID)
	})

	t.Run("node payload", func(t *testing.T) {
		payload := stmts[1].Payload
		assert.Equal(t, "graph-1", payload["graph_id"])
		assert.Equal(t, 2, payload["version"])
		assert.Equal(t, "n-task", payload["id"])
		assert.Equal(t, "Wireframe", payload["label"])
		assert.Equal(t, "task", payload["type"])
		assert.Equal(t, map[string]interface{}{"estimated_hours": 4.0}, payload["attributes"])
	})

	t.Run("edge payload uses scoped endpoints", func(t *testing.T) {
		payload := stmts[2].Payload
		assert.Equal(t, "graph-1:v2:n-obj", payload["source"])
		assert.Equal(t, "graph-1:v2:n-task", payload["target"])
		assert.Equal(t, "CONTAINS", payload["relationship"])
		assert.NotContains(t, payload, "attributes")
	})

	t.Run("generation is deterministic", func(t *testing.T) {
		assert.Equal(t, stmts, Generate(v))
	})
}

func TestGenerateVersionsDoNotCollide(t *testing.T) {
	v1 := testVersion(t)
	v2 := testVersion(t)
	v2.Version = 3

	ids := map[string]bool{}
	for _, stmt := range Generate(v1) {
		ids[stmt.VersionScopedID] = true
	}
	for _, stmt := range Generate(v2) {
		assert.False(t, ids[stmt.VersionScopedID], "scoped id %s collides across versions", stmt.VersionScopedID)
	}
}
