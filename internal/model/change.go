package model

import "time"

// ChangeType tags a ChangeEvent.
type ChangeType string

const (
	ShowCreated  ChangeType = "show-created"
	ShowUpdated  ChangeType = "show-updated"
	ShowDeleted  ChangeType = "show-deleted"
	EventCreated ChangeType = "event-created"
	EventUpdated ChangeType = "event-updated"
	EventDeleted ChangeType = "event-deleted"
)

// ChangeEvent is the domain notification published on the bus after a
// successful mutation. It is never persisted.
type ChangeEvent struct {
	Type      ChangeType `json:"type"`
	CreatedAt time.Time  `json:"createdAt"`
	Data      ChangeData `json:"data"`
}

// ChangeData is the tag-dependent payload: show-* events carry a Show,
// event-* events carry an Event. Backrefs are stripped so payloads never
// recurse.
type ChangeData struct {
	Show  *Show  `json:"show,omitempty"`
	Event *Event `json:"event,omitempty"`
}

func NewShowChange(t ChangeType, show Show) ChangeEvent {
	show.Events = nil
	return ChangeEvent{
		Type:      t,
		CreatedAt: time.Now().UTC(),
		Data:      ChangeData{Show: &show},
	}
}

func NewEventChange(t ChangeType, event Event) ChangeEvent {
	event.Show = nil
	return ChangeEvent{
		Type:      t,
		CreatedAt: time.Now().UTC(),
		Data:      ChangeData{Event: &event},
	}
}
