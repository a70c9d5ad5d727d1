package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID(t *testing.T) {
	id, err := NewNodeID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, NodePrefix))
	assert.Len(t, id, len(NodePrefix)+Length)
	for _, r := range strings.TrimPrefix(id, NodePrefix) {
		assert.Contains(t, Alphabet, string(r))
	}
}

func TestNewEdgeID(t *testing.T) {
	id, err := NewEdgeID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, EdgePrefix))
	assert.Len(t, id, len(EdgePrefix)+Length)
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewNodeID()
		require.NoError(t, err)
		assert.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
}
