package messaging

import (
	"context"
)

// Broker defines the interface for message brokers used for the
// real-time toast fan-out towards connected dashboards.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
