// Package broker defines the pub/sub capability this service depends on.
// The spec treats the broker as an external collaborator (§1); only its
// interface matters to the core. Two implementations exist: redisbroker
// (Redis Streams, consumer groups) for production wiring, and memorybroker
// for engine unit tests.
package broker

import (
	"context"

	"github.com/aioutlet/product-catalog-core/internal/cloudevents"
)

// Handler processes one delivered envelope. A nil error lets the broker ack
// it; a non-nil error leaves it for redelivery. See internal/router for how
// handler failures are classified before they reach the broker.
type Handler func(ctx context.Context, envelope *cloudevents.Event) error

// Publisher publishes a pre-built CloudEvents envelope to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, envelope *cloudevents.Event) error
}

// Subscriber consumes envelopes from a named topic, invoking handler for
// each. Implementations block until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

// Broker is the full capability: publish(topic, envelope) and
// subscribe(topic, handler), per §1.
type Broker interface {
	Publisher
	Subscriber
}
