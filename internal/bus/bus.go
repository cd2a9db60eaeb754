// Package bus is the in-process change notification fabric. Coordinators
// publish after successful mutations; the SSE handler subscribes.
package bus

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/radioepoka/showcaster/internal/model"
)

// DefaultBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing events.
const DefaultBuffer = 16

// Broker fans ChangeEvents out to subscribers. Publish never blocks: events
// for a full subscriber buffer are dropped.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan model.ChangeEvent
	buffer int
	logger zerolog.Logger
}

func NewBroker(buffer int, logger zerolog.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{
		subs:   make(map[int]chan model.ChangeEvent),
		buffer: buffer,
		logger: logger.With().Str("component", "bus").Logger(),
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan model.ChangeEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan model.ChangeEvent, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every current subscriber without blocking.
func (b *Broker) Publish(ev model.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn().
				Int("subscriber", id).
				Str("type", string(ev.Type)).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// Subscribers reports the current subscription count.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
