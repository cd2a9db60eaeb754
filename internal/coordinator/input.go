package coordinator

import (
	"github.com/google/uuid"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore"
)

// EventCreateInput is the POST /events body. ID is optional and generated
// when absent.
type EventCreateInput struct {
	ID         *string           `json:"id,omitempty"`
	Type       model.EventType   `json:"type"`
	ShowID     string            `json:"showId"`
	Start      *model.WallTime   `json:"start"`
	End        *model.WallTime   `json:"end"`
	Timezone   string            `json:"timezone"`
	Recurrence *model.Recurrence `json:"recurrence,omitempty"`
}

// build validates the input and splits it into its relational row and
// calendar entry.
func (in EventCreateInput) build() (relstore.EventRow, model.CalEvent, error) {
	var row relstore.EventRow
	var calEv model.CalEvent

	if !model.ValidEventType(in.Type) {
		return row, calEv, apperr.Validation("unknown event type %q", in.Type)
	}
	if in.ShowID == "" {
		return row, calEv, apperr.Validation("showId is required")
	}
	if _, err := uuid.Parse(in.ShowID); err != nil {
		return row, calEv, apperr.Validation("showId %q is not a UUID", in.ShowID)
	}
	if in.Start == nil || in.End == nil {
		return row, calEv, apperr.Validation("start and end are required")
	}
	if in.Timezone == "" {
		return row, calEv, apperr.Validation("timezone is required")
	}

	id := uuid.NewString()
	if in.ID != nil {
		if _, err := uuid.Parse(*in.ID); err != nil {
			return row, calEv, apperr.Validation("id %q is not a UUID", *in.ID)
		}
		id = *in.ID
	}

	calEv = model.CalEvent{
		ID:         id,
		Start:      *in.Start,
		End:        *in.End,
		Timezone:   in.Timezone,
		Recurrence: in.Recurrence,
	}
	if err := calEv.Validate(); err != nil {
		return row, calEv, err
	}

	row = relstore.EventRow{ID: id, Type: in.Type, ShowID: in.ShowID}
	return row, calEv, nil
}

// EventUpdateInput is the PATCH /events/{id} body. Absent fields are left
// as-is; recurrence distinguishes absent from null, null clearing it.
type EventUpdateInput struct {
	ID         *string                          `json:"id,omitempty"`
	Type       *model.EventType                 `json:"type,omitempty"`
	ShowID     *string                          `json:"showId,omitempty"`
	Start      *model.WallTime                  `json:"start,omitempty"`
	End        *model.WallTime                  `json:"end,omitempty"`
	Timezone   *string                          `json:"timezone,omitempty"`
	Recurrence model.Optional[model.Recurrence] `json:"recurrence"`
}

func (in EventUpdateInput) validate() error {
	if in.ID != nil {
		if _, err := uuid.Parse(*in.ID); err != nil {
			return apperr.Validation("id %q is not a UUID", *in.ID)
		}
	}
	if in.Type != nil && !model.ValidEventType(*in.Type) {
		return apperr.Validation("unknown event type %q", *in.Type)
	}
	if in.ShowID != nil {
		if _, err := uuid.Parse(*in.ShowID); err != nil {
			return apperr.Validation("showId %q is not a UUID", *in.ShowID)
		}
	}
	if in.Timezone != nil && *in.Timezone == "" {
		return apperr.Validation("timezone cannot be empty")
	}
	return nil
}

// ShowCreateInput is the POST /shows body.
type ShowCreateInput struct {
	ID          *string `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

func (in ShowCreateInput) build() (relstore.ShowRow, error) {
	var row relstore.ShowRow
	if in.Title == "" {
		return row, apperr.Validation("title is required")
	}

	id := uuid.NewString()
	if in.ID != nil {
		if _, err := uuid.Parse(*in.ID); err != nil {
			return row, apperr.Validation("id %q is not a UUID", *in.ID)
		}
		id = *in.ID
	}
	return relstore.ShowRow{ID: id, Title: in.Title, Description: in.Description}, nil
}

// ShowUpdateInput is the PATCH /shows/{id} body. A changed ID migrates all
// dependent events.
type ShowUpdateInput struct {
	ID          *string                `json:"id,omitempty"`
	Title       *string                `json:"title,omitempty"`
	Description model.Optional[string] `json:"description"`
}

func (in ShowUpdateInput) validate() error {
	if in.ID != nil {
		if _, err := uuid.Parse(*in.ID); err != nil {
			return apperr.Validation("id %q is not a UUID", *in.ID)
		}
	}
	if in.Title != nil && *in.Title == "" {
		return apperr.Validation("title cannot be empty")
	}
	return nil
}
