package bus

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/radioepoka/showcaster/internal/model"
)

func change(t model.ChangeType) model.ChangeEvent {
	return model.ChangeEvent{Type: t, CreatedAt: time.Now().UTC()}
}

func TestPublishFanOut(t *testing.T) {
	b := NewBroker(4, zerolog.Nop())

	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish(change(model.ShowCreated))

	for _, ch := range []<-chan model.ChangeEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			require.Equal(t, model.ShowCreated, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("no event delivered")
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	b := NewBroker(1, zerolog.Nop())

	slow, cancelSlow := b.Subscribe()
	fast, cancelFast := b.Subscribe()
	defer cancelSlow()
	defer cancelFast()

	b.Publish(change(model.EventCreated))
	require.Equal(t, model.EventCreated, (<-fast).Type)
	b.Publish(change(model.EventUpdated)) // dropped for slow, whose buffer is still full
	require.Equal(t, model.EventUpdated, (<-fast).Type)

	require.Equal(t, model.EventCreated, (<-slow).Type)
	select {
	case ev := <-slow:
		t.Fatalf("expected second event dropped, got %s", ev.Type)
	default:
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	b := NewBroker(1, zerolog.Nop())

	ch, cancel := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	cancel()
	cancel() // idempotent
	require.Equal(t, 0, b.Subscribers())

	_, open := <-ch
	require.False(t, open)

	// Publishing with no subscribers is a no-op.
	b.Publish(change(model.ShowDeleted))
}
