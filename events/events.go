package events

import (
	"context"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

type Event struct {
	ID                    uuid.UUID
	Version               int
	Name                  string
	Description           string
	Venue                 string
	StartTime             time.Time
	RegistrationCloseTime time.Time
	Fee                   *money.Money
	Status                Status
}

// IsOpenForRegistration reports whether a new registration may be created
// for this event at the given time.
func (e Event) IsOpenForRegistration(at time.Time) bool {
	return e.Status == ACTIVE && !at.After(e.RegistrationCloseTime)
}

type GetEventsResponse struct {
	Data        []Event
	Cursor      *string
	HasNextPage bool
}

type Repository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	GetEvents(ctx context.Context, limit int32, cursor *string) (GetEventsResponse, error)
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
}
