// Package relstore is the relational half of event storage: show rows and
// the identity/type/ownership columns of events. Temporal fields live in the
// calendar store and never appear here.
package relstore

import (
	"context"

	"github.com/radioepoka/showcaster/internal/model"
)

// ShowRow is a shows table row. Events is populated only when the query
// asked for it.
type ShowRow struct {
	ID          string
	Title       string
	Description *string
	Events      []EventRow
}

// EventRow is an events table row. Show is populated only when the query
// asked for it.
type EventRow struct {
	ID     string
	Type   model.EventType
	ShowID string
	Show   *ShowRow
}

// EventUpdate carries the mutable relational columns of an event, the
// primary key included. Nil means leave unchanged.
type EventUpdate struct {
	ID     *string
	Type   *model.EventType
	ShowID *string
}

// ShowUpdate carries the mutable columns of a show, the primary key
// included. Description uses Optional so callers can clear it.
type ShowUpdate struct {
	ID          *string
	Title       *string
	Description model.Optional[string]
}

// EventQuery selects event rows. A nil Where matches everything; Take nil
// means no limit.
type EventQuery struct {
	Where       *EventWhere
	Order       []Order
	Skip        int
	Take        *int
	IncludeShow bool
}

// ShowQuery selects show rows.
type ShowQuery struct {
	Where         *ShowWhere
	Order         []Order
	Skip          int
	Take          *int
	IncludeEvents bool
}

// ShowSelector identifies exactly one show, by id or by its unique title.
type ShowSelector struct {
	ID    *string `json:"id,omitempty"`
	Title *string `json:"title,omitempty"`
}

type EventStore interface {
	Count(ctx context.Context, where *EventWhere) (int64, error)
	FindMany(ctx context.Context, q EventQuery) ([]EventRow, error)
	FindUnique(ctx context.Context, id string, includeShow bool) (*EventRow, error)
	Create(ctx context.Context, row EventRow) (*EventRow, error)
	CreateMany(ctx context.Context, rows []EventRow) (int64, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*EventRow, error)
	Delete(ctx context.Context, id string) (*EventRow, error)
	DeleteMany(ctx context.Context, where *EventWhere) (int64, error)
}

type ShowStore interface {
	Count(ctx context.Context, where *ShowWhere) (int64, error)
	FindMany(ctx context.Context, q ShowQuery) ([]ShowRow, error)
	FindUnique(ctx context.Context, sel ShowSelector, includeEvents bool) (*ShowRow, error)
	Create(ctx context.Context, row ShowRow) (*ShowRow, error)
	Update(ctx context.Context, id string, upd ShowUpdate) (*ShowRow, error)
	Delete(ctx context.Context, id string) (*ShowRow, error)
}

// Store is the relational gateway. Transact runs fn against a store bound
// to a single transaction, committing on nil and rolling back on error.
type Store interface {
	Events() EventStore
	Shows() ShowStore
	Transact(ctx context.Context, fn func(tx Store) error) error
	Close()
}
