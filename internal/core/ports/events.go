package ports

import "context"

// EventPublisher publishes account lifecycle events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}
