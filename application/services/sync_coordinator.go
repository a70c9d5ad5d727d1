// Package services contains the SyncCoordinator, the application service
// that drives the end-to-end transition from an accepted plan or edit to a
// committed version, background persistence and a change notification.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plangraph/application/ports"
	"plangraph/domain/core"
	"plangraph/domain/editor"
	"plangraph/domain/events"
	"plangraph/domain/planning"
	"plangraph/domain/statements"
	"plangraph/domain/versioning"
	pkgerrors "plangraph/pkg/errors"
	"plangraph/pkg/observability"
)

// Default durations, overridable through configuration
const (
	DefaultCoalesceWindow = 500 * time.Millisecond
	DefaultPersistTimeout = 10 * time.Second
)

// SyncCoordinator orchestrates commits, background persistence and change
// notifications. A persistence failure after a successful commit never rolls
// the commit back; the in-memory chain is the source of truth for the
// session and the failure is reported asynchronously.
type SyncCoordinator struct {
	store     ports.VersionStore
	executor  ports.StatementExecutor
	publisher ports.EventPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger

	coalesceWindow time.Duration
	persistTimeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEdit

	background sync.WaitGroup
}

// pendingEdit is an open coalescing batch for one graph. Edits arriving
// while the batch is open replace its snapshot and reset the window; every
// waiter receives the single resulting commit.
type pendingEdit struct {
	timer    *time.Timer
	snapshot *core.GraphModel
	edits    int
	done     chan struct{}
	version  *versioning.GraphVersion
	err      error
}

// NewSyncCoordinator creates a coordinator. Zero durations fall back to the
// defaults.
func NewSyncCoordinator(
	store ports.VersionStore,
	executor ports.StatementExecutor,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	coalesceWindow time.Duration,
	persistTimeout time.Duration,
) *SyncCoordinator {
	if coalesceWindow <= 0 {
		coalesceWindow = DefaultCoalesceWindow
	}
	if persistTimeout <= 0 {
		persistTimeout = DefaultPersistTimeout
	}
	return &SyncCoordinator{
		store:          store,
		executor:       executor,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger,
		coalesceWindow: coalesceWindow,
		persistTimeout: persistTimeout,
		pending:        make(map[string]*pendingEdit),
	}
}

// GeneratePlan parses raw plan JSON, commits it as version 1 of a new graph
// and schedules persistence in the background. The committed version and its
// wire-format rendering return immediately; the caller never waits for the
// database.
func (s *SyncCoordinator) GeneratePlan(ctx context.Context, raw json.RawMessage) (*versioning.GraphVersion, []editor.Element, error) {
	graphID := uuid.New().String()

	model, err := planning.Parse(graphID, raw)
	if err != nil {
		return nil, nil, err
	}

	version, err := s.store.Commit(ctx, graphID, model, versioning.SourceLLMGenerated)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.CommitsTotal.WithLabelValues(string(versioning.SourceLLMGenerated)).Inc()

	s.schedulePersist(version)

	return version, editor.ToElements(model), nil
}

// ApplyEdit validates wire elements against the canonical model and commits
// them as the graph's next version. Rapid successive edits to the same graph
// within the coalescing window batch into a single commit; each caller in
// the batch receives that one resulting version. Cancelling the request
// abandons only the caller's wait, never a batch already accepted.
func (s *SyncCoordinator) ApplyEdit(ctx context.Context, graphID string, elements []editor.Element) (*versioning.GraphVersion, error) {
	// The edit targets an existing chain; commit never implicitly creates one.
	if _, err := s.store.Get(ctx, graphID, ports.LatestVersion); err != nil {
		return nil, err
	}

	model, err := editor.FromElements(graphID, elements)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	batch, open := s.pending[graphID]
	if open {
		batch.snapshot = model
		batch.edits++
		batch.timer.Reset(s.coalesceWindow)
		s.metrics.CoalescedEdits.Inc()
	} else {
		batch = &pendingEdit{
			snapshot: model,
			edits:    1,
			done:     make(chan struct{}),
		}
		batch.timer = time.AfterFunc(s.coalesceWindow, func() { s.flushEdit(graphID) })
		s.pending[graphID] = batch
	}
	s.mu.Unlock()

	select {
	case <-batch.done:
		return batch.version, batch.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flushEdit commits an elapsed coalescing batch
func (s *SyncCoordinator) flushEdit(graphID string) {
	s.mu.Lock()
	batch, open := s.pending[graphID]
	delete(s.pending, graphID)
	s.mu.Unlock()
	if !open {
		return
	}

	// Update refuses to create a chain, so a graph deleted while the batch
	// was coalescing stays deleted instead of being resurrected at version 1.
	version, err := s.store.Update(context.Background(), graphID, batch.snapshot, versioning.SourceUserEdited)
	if pkgerrors.IsNotFound(err) {
		err = pkgerrors.NewConflictError(
			fmt.Sprintf("graph %s was deleted while the edit was pending", graphID))
	}
	batch.version, batch.err = version, err
	close(batch.done)

	if err != nil {
		s.logger.Error("Failed to commit coalesced edit",
			zap.String("graphID", graphID),
			zap.Error(err),
		)
		return
	}

	s.metrics.CommitsTotal.WithLabelValues(string(versioning.SourceUserEdited)).Inc()
	if batch.edits > 1 {
		s.logger.Info("Coalesced edits into one commit",
			zap.String("graphID", graphID),
			zap.Int("edits", batch.edits),
			zap.Int("version", version.Version),
		)
	}

	s.schedulePersist(version)
}

// GetVersion returns the requested version, or the latest when version is 0
func (s *SyncCoordinator) GetVersion(ctx context.Context, graphID string, version int) (*versioning.GraphVersion, error) {
	return s.store.Get(ctx, graphID, version)
}

// GetElements returns the wire-format rendering of the requested version
func (s *SyncCoordinator) GetElements(ctx context.Context, graphID string, version int) (*versioning.GraphVersion, []editor.Element, error) {
	v, err := s.store.Get(ctx, graphID, version)
	if err != nil {
		return nil, nil, err
	}
	return v, editor.ToElements(v.Snapshot), nil
}

// ListGraphs enumerates all version chains
func (s *SyncCoordinator) ListGraphs(ctx context.Context) ([]versioning.ChainSummary, error) {
	return s.store.List(ctx)
}

// DeleteGraph removes a graph's chain and schedules removal of its persisted
// versions in the background
func (s *SyncCoordinator) DeleteGraph(ctx context.Context, graphID string) error {
	if err := s.store.Delete(ctx, graphID); err != nil {
		return err
	}
	s.metrics.GraphsDeleted.Inc()

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		if err := s.executor.DeleteGraph(ctx, graphID); err != nil {
			s.logger.Error("Failed to delete persisted graph",
				zap.String("graphID", graphID),
				zap.Error(err),
			)
		}
		s.notify(events.TopicGraphDeleted, events.GraphDeleted{
			GraphID:   graphID,
			Timestamp: time.Now().UTC(),
		})
	}()
	return nil
}

// schedulePersist announces the commit and runs statement generation and
// execution as a detached task. Overlapping persists for one graph are safe
// because statements are idempotent upserts keyed by version-scoped ids.
func (s *SyncCoordinator) schedulePersist(version *versioning.GraphVersion) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()

		// The update notification goes out as soon as the commit exists;
		// subscribers learn the persistence outcome separately.
		s.notify(events.TopicGraphUpdated, events.GraphChanged{
			GraphID:   version.GraphID,
			Version:   version.Version,
			Source:    version.Source,
			Timestamp: time.Now().UTC(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		stmts := statements.Generate(version)
		err := s.executor.Execute(ctx, stmts)

		note := events.GraphPersisted{
			GraphID:   version.GraphID,
			Version:   version.Version,
			Persisted: err == nil,
			Timestamp: time.Now().UTC(),
		}

		switch {
		case err == nil:
			s.metrics.PersistenceTotal.WithLabelValues(observability.PersistOutcomeSuccess).Inc()
			s.logger.Info("Persisted graph version",
				zap.String("graphID", version.GraphID),
				zap.Int("version", version.Version),
				zap.Int("statements", len(stmts)),
			)
		case errors.Is(err, context.DeadlineExceeded):
			note.Error = err.Error()
			s.metrics.PersistenceTotal.WithLabelValues(observability.PersistOutcomeTimeout).Inc()
			s.logger.Error("Persistence timed out; commit stands",
				zap.String("graphID", version.GraphID),
				zap.Int("version", version.Version),
				zap.Error(err),
			)
		default:
			note.Error = err.Error()
			s.metrics.PersistenceTotal.WithLabelValues(observability.PersistOutcomeFailure).Inc()
			s.logger.Error("Persistence failed; commit stands",
				zap.String("graphID", version.GraphID),
				zap.Int("version", version.Version),
				zap.Error(err),
			)
		}

		s.notify(events.TopicGraphPersisted, note)
	}()
}

func (s *SyncCoordinator) notify(topic string, event interface{}) {
	if err := s.publisher.Publish(context.Background(), topic, event); err != nil {
		s.logger.Warn("Failed to publish change notification",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}

// Wait blocks until all background persistence tasks have finished; used
// during graceful shutdown
func (s *SyncCoordinator) Wait() {
	s.background.Wait()
}
