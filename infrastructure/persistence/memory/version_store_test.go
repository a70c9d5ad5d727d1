package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plangraph/domain/core"
	"plangraph/domain/versioning"
	pkgerrors "plangraph/pkg/errors"
)

func testSnapshot(t *testing.T, graphID, label string) *core.GraphModel {
	t.Helper()
	nodes := []core.Node{{ID: "n-1", Type: core.NodeTypeObjective, Label: label}}
	g, err := core.NewGraphModel(graphID, nodes, nil)
	require.NoError(t, err)
	return g
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	store := NewVersionStore(zap.NewNop())

	t.Run("first commit is version 1", func(t *testing.T) {
		v, err := store.Commit(ctx, "g1", testSnapshot(t, "g1", "a"), versioning.SourceLLMGenerated)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Version)
		assert.Equal(t, versioning.SourceLLMGenerated, v.Source)
		assert.False(t, v.CreatedAt.IsZero())
	})

	t.Run("subsequent commits increment", func(t *testing.T) {
		v, err := store.Commit(ctx, "g1", testSnapshot(t, "g1", "b"), versioning.SourceUserEdited)
		require.NoError(t, err)
		assert.Equal(t, 2, v.Version)
	})

	t.Run("earlier versions stay intact", func(t *testing.T) {
		v1, err := store.Get(ctx, "g1", 1)
		require.NoError(t, err)
		node, ok := v1.Snapshot.Node("n-1")
		require.True(t, ok)
		assert.Equal(t, "a", node.Label)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := store.Commit(ctx, "", testSnapshot(t, "g1", "x"), versioning.SourceUserEdited)
		assert.True(t, pkgerrors.IsValidation(err))

		_, err = store.Commit(ctx, "g1", nil, versioning.SourceUserEdited)
		assert.True(t, pkgerrors.IsValidation(err))

		_, err = store.Commit(ctx, "g1", testSnapshot(t, "other", "x"), versioning.SourceUserEdited)
		assert.True(t, pkgerrors.IsValidation(err))

		_, err = store.Commit(ctx, "g1", testSnapshot(t, "g1", "x"), versioning.Source("robot"))
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestCommitConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewVersionStore(zap.NewNop())

	const commits = 50
	var wg sync.WaitGroup
	versions := make([]int, commits)
	errs := make([]error, commits)
	snapshots := make([]*core.GraphModel, commits)
	for i := 0; i < commits; i++ {
		snapshots[i] = testSnapshot(t, "g1", fmt.Sprintf("c%d", i))
	}
	for i := 0; i < commits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := store.Commit(ctx, "g1", snapshots[i], versioning.SourceUserEdited)
			if err != nil {
				errs[i] = err
				return
			}
			versions[i] = v.Version
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "commit %d failed", i)
	}

	// gapless: every version number 1..commits allocated exactly once
	seen := make(map[int]bool, commits)
	for _, v := range versions {
		assert.False(t, seen[v], "version %d allocated twice", v)
		seen[v] = true
	}
	for n := 1; n <= commits; n++ {
		assert.True(t, seen[n], "version %d never allocated", n)
	}

	latest, err := store.Get(ctx, "g1", 0)
	require.NoError(t, err)
	assert.Equal(t, commits, latest.Version)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	store := NewVersionStore(zap.NewNop())
	_, err := store.Commit(ctx, "g1", testSnapshot(t, "g1", "a"), versioning.SourceLLMGenerated)
	require.NoError(t, err)
	_, err = store.Commit(ctx, "g1", testSnapshot(t, "g1", "b"), versioning.SourceUserEdited)
	require.NoError(t, err)

	t.Run("zero selects latest", func(t *testing.T) {
		v, err := store.Get(ctx, "g1", 0)
		require.NoError(t, err)
		assert.Equal(t, 2, v.Version)
	})

	t.Run("specific version", func(t *testing.T) {
		v, err := store.Get(ctx, "g1", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Version)
	})

	t.Run("unknown graph", func(t *testing.T) {
		_, err := store.Get(ctx, "ghost", 0)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("version beyond chain", func(t *testing.T) {
		_, err := store.Get(ctx, "g1", 3)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))

		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, 2, appErr.Details["latest_version"])
	})

	t.Run("negative version", func(t *testing.T) {
		_, err := store.Get(ctx, "g1", -1)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("latest on a chain with no commit yet", func(t *testing.T) {
		// A chain becomes visible in the map before its first append; a
		// latest-version read in that window is not found, never a panic.
		empty := NewVersionStore(zap.NewNop())
		empty.getOrCreateChain("g-pending")
		_, err := empty.Get(ctx, "g-pending", 0)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewVersionStore(zap.NewNop())

	t.Run("never creates a chain", func(t *testing.T) {
		_, err := store.Update(ctx, "g1", testSnapshot(t, "g1", "a"), versioning.SourceUserEdited)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
		_, err = store.Get(ctx, "g1", 0)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("appends to an existing chain", func(t *testing.T) {
		_, err := store.Commit(ctx, "g1", testSnapshot(t, "g1", "a"), versioning.SourceLLMGenerated)
		require.NoError(t, err)

		v, err := store.Update(ctx, "g1", testSnapshot(t, "g1", "b"), versioning.SourceUserEdited)
		require.NoError(t, err)
		assert.Equal(t, 2, v.Version)
		assert.Equal(t, versioning.SourceUserEdited, v.Source)
	})

	t.Run("fails after delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "g1"))
		_, err := store.Update(ctx, "g1", testSnapshot(t, "g1", "c"), versioning.SourceUserEdited)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
		_, err = store.Get(ctx, "g1", 0)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("deleted chain refuses appends through a stale pointer", func(t *testing.T) {
		_, err := store.Commit(ctx, "g2", testSnapshot(t, "g2", "a"), versioning.SourceLLMGenerated)
		require.NoError(t, err)

		stale := store.getOrCreateChain("g2")
		require.NoError(t, store.Delete(ctx, "g2"))

		_, ok := stale.append("g2", testSnapshot(t, "g2", "b"), versioning.SourceUserEdited)
		assert.False(t, ok)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	store := NewVersionStore(zap.NewNop())

	t.Run("empty store", func(t *testing.T) {
		summaries, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	_, err := store.Commit(ctx, "g1", testSnapshot(t, "g1", "a"), versioning.SourceLLMGenerated)
	require.NoError(t, err)
	_, err = store.Commit(ctx, "g1", testSnapshot(t, "g1", "b"), versioning.SourceUserEdited)
	require.NoError(t, err)
	_, err = store.Commit(ctx, "g2", testSnapshot(t, "g2", "c"), versioning.SourceLLMGenerated)
	require.NoError(t, err)

	t.Run("summaries newest first", func(t *testing.T) {
		summaries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		assert.Equal(t, "g2", summaries[0].GraphID)
		assert.Equal(t, "g1", summaries[1].GraphID)
		assert.Equal(t, 2, summaries[1].LatestVersion)
		assert.Equal(t, 2, summaries[1].TotalVersions)
		assert.Equal(t, versioning.SourceUserEdited, summaries[1].LatestSource)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := NewVersionStore(zap.NewNop())
	_, err := store.Commit(ctx, "g1", testSnapshot(t, "g1", "a"), versioning.SourceLLMGenerated)
	require.NoError(t, err)

	t.Run("removes the whole chain", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "g1"))
		_, err := store.Get(ctx, "g1", 0)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("unknown graph", func(t *testing.T) {
		err := store.Delete(ctx, "ghost")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("new commit after delete restarts at version 1", func(t *testing.T) {
		v, err := store.Commit(ctx, "g1", testSnapshot(t, "g1", "again"), versioning.SourceLLMGenerated)
		require.NoError(t, err)
		assert.Equal(t, 1, v.Version)
	})
}
