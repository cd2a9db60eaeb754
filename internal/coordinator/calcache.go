package coordinator

import (
	"context"
	"time"

	"github.com/radioepoka/showcaster/internal/cache"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/model"
)

// CachedCalendar is a write-through cache over a Calendar. The coordinators
// are the only writers of the calendar collection, so a successful PUT or
// DELETE keeps the cache coherent; the TTL only bounds staleness against
// out-of-band edits on the CalDAV server.
type CachedCalendar struct {
	next   Calendar
	events *cache.Cache[string, model.CalEvent]
}

func NewCachedCalendar(next Calendar, ttl time.Duration) *CachedCalendar {
	return &CachedCalendar{
		next:   next,
		events: cache.New[string, model.CalEvent](ttl),
	}
}

func (c *CachedCalendar) GetEvent(ctx context.Context, uid string) (*model.CalEvent, error) {
	if ev, ok := c.events.Get(uid); ok {
		return &ev, nil
	}
	ev, err := c.next.GetEvent(ctx, uid)
	if err != nil {
		return nil, err
	}
	c.events.Set(uid, *ev)
	return ev, nil
}

func (c *CachedCalendar) PutEvent(ctx context.Context, ev model.CalEvent) error {
	if err := c.next.PutEvent(ctx, ev); err != nil {
		return err
	}
	c.events.Set(ev.ID, ev)
	return nil
}

func (c *CachedCalendar) DeleteEvent(ctx context.Context, uid string) error {
	// Evict regardless of the outcome; a failed delete leaves the server
	// state uncertain.
	c.events.Delete(uid)
	return c.next.DeleteEvent(ctx, uid)
}

// Query passes through but feeds its results into the cache, so the merge
// that typically follows a query hits memory instead of the wire.
func (c *CachedCalendar) Query(ctx context.Context, q calstore.Query) ([]model.CalEvent, error) {
	matches, err := c.next.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, ev := range matches {
		c.events.Set(ev.ID, ev)
	}
	return matches, nil
}
