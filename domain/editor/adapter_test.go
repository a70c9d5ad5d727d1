package editor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plangraph/domain/core"
	pkgerrors "plangraph/pkg/errors"
)

func testElements() []Element {
	return []Element{
		{ID: "n-obj", Type: core.NodeTypeObjective, Label: "Launch"},
		{ID: "n-task", Type: core.NodeTypeTask, Label: "Wireframe",
			Attributes: core.Attributes{"estimated_hours": int64(4), "billable": true}},
		{ID: "e-1", Source: "n-obj", Target: "n-task", Relationship: core.RelationshipContains},
	}
}

func TestRoundTrip(t *testing.T) {
	g, err := FromElements("graph-1", testElements())
	require.NoError(t, err)

	elements := ToElements(g)
	require.Len(t, elements, 3)

	g2, err := FromElements("graph-1", elements)
	require.NoError(t, err)
	assert.True(t, g.Equal(g2))
}

func TestToElementsOrdering(t *testing.T) {
	g, err := FromElements("g", []Element{
		{ID: "n-b", Type: core.NodeTypeTask, Label: "b"},
		{ID: "n-a", Type: core.NodeTypeTask, Label: "a"},
		{ID: "e-2", Source: "n-b", Target: "n-a", Relationship: core.RelationshipPrecedes},
		{ID: "e-1", Source: "n-a", Target: "n-b", Relationship: core.RelationshipPrecedes},
	})
	require.NoError(t, err)

	elements := ToElements(g)
	require.Len(t, elements, 4)

	// nodes first, then edges, each group sorted by id
	assert.Equal(t, "n-a", elements[0].ID)
	assert.Equal(t, "n-b", elements[1].ID)
	assert.Equal(t, "e-1", elements[2].ID)
	assert.Equal(t, "e-2", elements[3].ID)

	// same graph renders identically every time
	again := ToElements(g)
	assert.Equal(t, elements, again)
}

func TestFromElementsValidation(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		_, err := FromElements("g", []Element{{Type: core.NodeTypeTask, Label: "x"}})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("dangling edge", func(t *testing.T) {
		elements := []Element{
			{ID: "n-1", Type: core.NodeTypeTask, Label: "a"},
			{ID: "e-1", Source: "n-1", Target: "n-ghost", Relationship: core.RelationshipPrecedes},
		}
		_, err := FromElements("g", elements)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("id shared across kinds", func(t *testing.T) {
		elements := []Element{
			{ID: "n-1", Type: core.NodeTypeTask, Label: "a"},
			{ID: "x", Type: core.NodeTypeTask, Label: "b"},
			{ID: "x", Source: "n-1", Target: "n-1", Relationship: core.RelationshipPrecedes},
		}
		_, err := FromElements("g", elements)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unknown node type surfaces", func(t *testing.T) {
		_, err := FromElements("g", []Element{{ID: "n-1", Type: "milestone", Label: "a"}})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestElementJSON(t *testing.T) {
	t.Run("node marshals flat", func(t *testing.T) {
		element := Element{
			ID: "n-1", Type: core.NodeTypeTask, Label: "Wireframe",
			Attributes: core.Attributes{"estimated_hours": int64(4)},
		}
		data, err := json.Marshal(element)
		require.NoError(t, err)

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &record))
		assert.Equal(t, "n-1", record["id"])
		assert.Equal(t, "task", record["type"])
		assert.Equal(t, "Wireframe", record["label"])
		assert.Equal(t, 4.0, record["estimated_hours"])
		assert.NotContains(t, record, "source")
		assert.NotContains(t, record, "attributes")
	})

	t.Run("edge marshals flat", func(t *testing.T) {
		element := Element{ID: "e-1", Source: "n-1", Target: "n-2", Relationship: core.RelationshipContains}
		data, err := json.Marshal(element)
		require.NoError(t, err)

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &record))
		assert.Equal(t, "CONTAINS", record["relationship"])
		assert.NotContains(t, record, "label")
		assert.NotContains(t, record, "type")
	})

	t.Run("attribute types survive decoding", func(t *testing.T) {
		raw := `{"id":"n-1","type":"task","label":"x","count":7,"ratio":0.5,"done":false,"note":"hi"}`
		var element Element
		require.NoError(t, json.Unmarshal([]byte(raw), &element))

		assert.Equal(t, int64(7), element.Attributes["count"])
		assert.Equal(t, 0.5, element.Attributes["ratio"])
		assert.Equal(t, false, element.Attributes["done"])
		assert.Equal(t, "hi", element.Attributes["note"])
	})

	t.Run("source or target presence marks an edge", func(t *testing.T) {
		var node, edge Element
		require.NoError(t, json.Unmarshal([]byte(`{"id":"n-1","type":"task","label":"x"}`), &node))
		require.NoError(t, json.Unmarshal([]byte(`{"id":"e-1","source":"a","target":"b","relationship":"CONTAINS"}`), &edge))
		assert.False(t, node.IsEdge())
		assert.True(t, edge.IsEdge())
	})

	t.Run("non-string fixed field rejected", func(t *testing.T) {
		var element Element
		err := json.Unmarshal([]byte(`{"id":42,"type":"task"}`), &element)
		require.Error(t, err)
	})

	t.Run("wire round trip preserves values", func(t *testing.T) {
		original := Element{
			ID: "n-1", Type: core.NodeTypeTask, Label: "x",
			Attributes: core.Attributes{"count": int64(7), "ratio": 0.5, "done": true},
		}
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Element
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	})
}
