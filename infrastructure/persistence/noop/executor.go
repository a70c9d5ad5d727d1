// Package noop provides a statement executor that discards statements, for
// running without a graph database configured. Versions still live in the
// in-memory store; only the durable rendering is skipped.
package noop

import (
	"context"

	"go.uber.org/zap"

	"plangraph/domain/statements"
)

// StatementExecutor discards statements, logging them at debug level
type StatementExecutor struct {
	logger *zap.Logger
}

// NewStatementExecutor creates a discard-everything executor
func NewStatementExecutor(logger *zap.Logger) *StatementExecutor {
	return &StatementExecutor{logger: logger}
}

// Execute logs and drops the statements
func (e *StatementExecutor) Execute(ctx context.Context, stmts []statements.Statement) error {
	e.logger.Debug("Dropping statements: no database configured", zap.Int("count", len(stmts)))
	return nil
}

// DeleteGraph is a no-op
func (e *StatementExecutor) DeleteGraph(ctx context.Context, graphID string) error {
	return nil
}

// Ping always succeeds
func (e *StatementExecutor) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (e *StatementExecutor) Close(ctx context.Context) error {
	return nil
}
