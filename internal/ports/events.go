package ports

import "context"

// EventPublisher is the outbound domain-event publish port. partitionKey
// keeps per-user ordering on the broker without leaking client specifics
// into application code.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
