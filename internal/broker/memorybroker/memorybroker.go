// Package memorybroker is an in-process fake of internal/broker.Broker used
// by engine unit tests in place of Redis, grounded on the teacher's
// pkg/testutil/mocks/stream fakes but implemented as a working fan-out
// rather than a testify mock, since the projection/badge/variation engines
// need real publish->subscribe delivery to assert on.
package memorybroker

import (
	"context"
	"sync"

	"github.com/aioutlet/product-catalog-core/internal/broker"
	"github.com/aioutlet/product-catalog-core/internal/cloudevents"
)

// Broker fans out published envelopes to every handler subscribed on the
// same topic, synchronously, in-process.
type Broker struct {
	mu       sync.Mutex
	handlers map[string][]broker.Handler
	// Published records every envelope ever published, keyed by topic, for
	// assertions in tests that don't want to wire a real subscriber.
	Published map[string][]*cloudevents.Event
}

// New returns an empty Broker.
func New() *Broker {
	return &Broker{
		handlers:  make(map[string][]broker.Handler),
		Published: make(map[string][]*cloudevents.Event),
	}
}

// Publish records envelope and invokes every handler subscribed to topic.
func (b *Broker) Publish(ctx context.Context, topic string, envelope *cloudevents.Event) error {
	b.mu.Lock()
	b.Published[topic] = append(b.Published[topic], envelope)
	handlers := append([]broker.Handler{}, b.handlers[topic]...)
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, envelope); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers handler for topic. Unlike the Redis implementation,
// Subscribe returns immediately; delivery happens synchronously inside
// Publish calls made after registration.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler broker.Handler) error {
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	b.mu.Unlock()
	return nil
}

// Count returns how many envelopes were published to topic.
func (b *Broker) Count(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Published[topic])
}

var _ broker.Broker = (*Broker)(nil)
