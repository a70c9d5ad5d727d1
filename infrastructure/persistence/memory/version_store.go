// Package memory provides the in-memory VersionStore. Chains live for the
// lifetime of the process; the external graph database holds the durable
// rendering of each version.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"plangraph/domain/core"
	"plangraph/domain/versioning"
	pkgerrors "plangraph/pkg/errors"
)

// VersionStore holds one append-only version chain per graph id. A per-chain
// mutex serializes commits for a single graph so version numbers are gapless
// and strictly increasing regardless of call concurrency; different graphs
// commit independently.
type VersionStore struct {
	mu     sync.RWMutex
	chains map[string]*chain
	logger *zap.Logger
}

// chain carries a deleted marker so a pointer obtained before Delete removed
// it from the map can never accept another append.
type chain struct {
	mu       sync.Mutex
	deleted  bool
	versions []*versioning.GraphVersion
}

// append allocates the next version number. It refuses deleted chains so a
// concurrent Delete cannot be outraced into a resurrected graph.
func (c *chain) append(graphID string, snapshot *core.GraphModel, source versioning.Source) (*versioning.GraphVersion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleted {
		return nil, false
	}
	version := &versioning.GraphVersion{
		GraphID:   graphID,
		Version:   len(c.versions) + 1,
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Snapshot:  snapshot,
	}
	c.versions = append(c.versions, version)
	return version, true
}

// NewVersionStore creates an empty version store
func NewVersionStore(logger *zap.Logger) *VersionStore {
	return &VersionStore{
		chains: make(map[string]*chain),
		logger: logger,
	}
}

func validateCommit(graphID string, snapshot *core.GraphModel, source versioning.Source) error {
	if graphID == "" {
		return pkgerrors.NewValidationError("graph id cannot be empty")
	}
	if snapshot == nil {
		return pkgerrors.NewValidationError("snapshot cannot be nil")
	}
	if snapshot.GraphID() != graphID {
		return pkgerrors.NewValidationError("snapshot belongs to a different graph")
	}
	if !source.Valid() {
		return pkgerrors.NewValidationError("unknown version source")
	}
	return nil
}

// Commit appends a new version to the graph's chain, creating the chain if
// none exists. The first commit for a graph id always yields version 1.
func (s *VersionStore) Commit(ctx context.Context, graphID string, snapshot *core.GraphModel, source versioning.Source) (*versioning.GraphVersion, error) {
	if err := validateCommit(graphID, snapshot, source); err != nil {
		return nil, err
	}

	// A chain fetched from the map may be marked deleted by a concurrent
	// Delete before we append; retry against a fresh chain.
	var version *versioning.GraphVersion
	for {
		c := s.getOrCreateChain(graphID)
		if v, ok := c.append(graphID, snapshot, source); ok {
			version = v
			break
		}
	}

	s.logCommit(version, snapshot)
	return version, nil
}

// Update appends a new version to an existing chain and fails with a not
// found error when no chain exists or a concurrent Delete removed it. Unlike
// Commit it never creates a chain.
func (s *VersionStore) Update(ctx context.Context, graphID string, snapshot *core.GraphModel, source versioning.Source) (*versioning.GraphVersion, error) {
	if err := validateCommit(graphID, snapshot, source); err != nil {
		return nil, err
	}

	s.mu.RLock()
	c, exists := s.chains[graphID]
	s.mu.RUnlock()
	if !exists {
		return nil, pkgerrors.NewNotFoundError("graph " + graphID)
	}

	version, ok := c.append(graphID, snapshot, source)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("graph " + graphID)
	}

	s.logCommit(version, snapshot)
	return version, nil
}

func (s *VersionStore) logCommit(version *versioning.GraphVersion, snapshot *core.GraphModel) {
	s.logger.Info("Committed graph version",
		zap.String("graphID", version.GraphID),
		zap.Int("version", version.Version),
		zap.String("source", string(version.Source)),
		zap.Int("nodes", snapshot.NodeCount()),
		zap.Int("edges", snapshot.EdgeCount()),
	)
}

// Get returns the requested version, or the latest when version is 0
func (s *VersionStore) Get(ctx context.Context, graphID string, version int) (*versioning.GraphVersion, error) {
	s.mu.RLock()
	c, exists := s.chains[graphID]
	s.mu.RUnlock()
	if !exists {
		return nil, pkgerrors.NewNotFoundError("graph " + graphID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The chain may be freshly created with no commit yet, or deleted after
	// we fetched it from the map.
	if c.deleted || len(c.versions) == 0 {
		return nil, pkgerrors.NewNotFoundError("graph " + graphID)
	}
	if version == 0 {
		return c.versions[len(c.versions)-1], nil
	}
	if version < 1 || version > len(c.versions) {
		return nil, pkgerrors.NewNotFoundError("version").WithDetails(map[string]interface{}{
			"graph_id":       graphID,
			"version":        version,
			"latest_version": len(c.versions),
		})
	}
	return c.versions[version-1], nil
}

// List enumerates chain summaries for all graphs, newest first
func (s *VersionStore) List(ctx context.Context) ([]versioning.ChainSummary, error) {
	s.mu.RLock()
	chains := make(map[string]*chain, len(s.chains))
	for id, c := range s.chains {
		chains[id] = c
	}
	s.mu.RUnlock()

	summaries := make([]versioning.ChainSummary, 0, len(chains))
	for graphID, c := range chains {
		c.mu.Lock()
		if !c.deleted && len(c.versions) > 0 {
			latest := c.versions[len(c.versions)-1]
			summaries = append(summaries, versioning.ChainSummary{
				GraphID:       graphID,
				LatestVersion: latest.Version,
				TotalVersions: len(c.versions),
				CreatedAt:     c.versions[0].CreatedAt,
				LatestSource:  latest.Source,
			})
		}
		c.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].GraphID < summaries[j].GraphID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Delete removes the graph's entire chain. The chain is marked deleted under
// its own mutex before the map entry goes away, so an append racing the
// delete either lands before it or observes the marker.
func (s *VersionStore) Delete(ctx context.Context, graphID string) error {
	s.mu.Lock()
	c, exists := s.chains[graphID]
	if !exists {
		s.mu.Unlock()
		return pkgerrors.NewNotFoundError("graph " + graphID)
	}
	c.mu.Lock()
	c.deleted = true
	c.mu.Unlock()
	delete(s.chains, graphID)
	s.mu.Unlock()

	s.logger.Info("Deleted graph chain", zap.String("graphID", graphID))
	return nil
}

func (s *VersionStore) getOrCreateChain(graphID string) *chain {
	s.mu.RLock()
	c, exists := s.chains[graphID]
	s.mu.RUnlock()
	if exists {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, exists = s.chains[graphID]; exists {
		return c
	}
	c = &chain{}
	s.chains[graphID] = c
	return c
}
