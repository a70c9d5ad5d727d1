// Package noop provides a publisher that drops events, for running without
// a NATS endpoint configured.
package noop

import (
	"context"

	"go.uber.org/zap"
)

// Publisher discards events, logging them at debug level
type Publisher struct {
	logger *zap.Logger
}

// NewPublisher creates a drop-everything publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Publish logs and drops the event
func (p *Publisher) Publish(ctx context.Context, topic string, event interface{}) error {
	p.logger.Debug("Dropping event: no transport configured", zap.String("topic", topic))
	return nil
}

// Close is a no-op
func (p *Publisher) Close() error {
	return nil
}
