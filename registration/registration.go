package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campus-fest/event-checkin/events"
	"github.com/google/uuid"
)

type Repository interface {
	// CreateRegistration persists a new registration. At most one
	// registration may exist per (EventID, HolderID) pair; violating that
	// fails with REASON_REGISTRATION_ALREADY_EXISTS.
	CreateRegistration(ctx context.Context, registration Registration) error
	GetRegistration(ctx context.Context, id uuid.UUID) (Registration, error)
	GetRegistrationsForEvent(ctx context.Context, eventId uuid.UUID, limit int32, cursor *string) (GetRegistrationsResponse, error)
	GetRegistrationsForHolder(ctx context.Context, holderId uuid.UUID) ([]Registration, error)
	// SetApprovalStatus moves a PENDING registration to APPROVED or
	// REJECTED. Any other transition fails with REASON_INVALID_TRANSITION.
	SetApprovalStatus(ctx context.Context, id uuid.UUID, newStatus Status) (Registration, error)
	// TryRedeem flips Redeemed from false to true with RedeemedAt set to
	// the given time, as a single conditional write. Applied is false when
	// the registration was already redeemed; Current always reflects the
	// stored record after the attempt, so a losing caller sees the
	// winner's RedeemedAt.
	TryRedeem(ctx context.Context, id uuid.UUID, at time.Time) (TryRedeemResult, error)
}

type GetRegistrationsResponse struct {
	Data        []Registration
	Cursor      *string
	HasNextPage bool
}

type TryRedeemResult struct {
	Applied bool
	Current Registration
}

type Registration struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	HolderID      uuid.UUID
	Status        Status
	Redeemed      bool
	RedeemedAt    *time.Time
	RegisteredAt  time.Time
	PaymentRef    string
	TransactionID string
	Profile       HolderProfile
}

// HolderProfile is display-only data shown to gate staff at check-in and
// in admin listings. The lifecycle logic never inspects it.
type HolderProfile struct {
	FullName    string
	RollNumber  string
	Department  string
	Section     string
	Year        string
	PhoneNumber string
	CollegeName string
	TeamName    string
}

// AttemptRegistration validates the target event and creates the
// registration in PENDING state.
func AttemptRegistration(ctx context.Context, reg Registration, eventRepo events.Repository, registrationRepo Repository) error {
	event, err := eventRepo.GetEvent(ctx, reg.EventID)
	if err != nil {
		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_EVENT_DOES_NOT_EXIST {
			return NewAssociatedEventDoesNotExistError(fmt.Sprintf("Event does not exist with ID %q", reg.EventID), err)
		}

		return NewFailedToFetchError(fmt.Sprintf("Failed to fetch event with ID %q", reg.EventID), err)
	}

	if !event.IsOpenForRegistration(reg.RegisteredAt) {
		return NewEventNotOpenError(event.Status, event.RegistrationCloseTime)
	}

	if reg.Status != PENDING {
		return NewInvalidTransitionError(fmt.Sprintf("New registrations must start as PENDING, got %s", reg.Status), nil)
	}
	if reg.Redeemed || reg.RedeemedAt != nil {
		return NewInvalidTransitionError("New registrations must not be redeemed", nil)
	}

	return registrationRepo.CreateRegistration(ctx, reg)
}

// Review resolves a PENDING registration to APPROVED or REJECTED.
func Review(ctx context.Context, id uuid.UUID, decision Status, registrationRepo Repository) (Registration, error) {
	switch decision {
	case APPROVED, REJECTED:
	case PENDING:
		return Registration{}, NewInvalidTransitionError("Cannot review a registration back to PENDING", nil)
	default:
		return Registration{}, NewInvalidTransitionError(fmt.Sprintf("Unknown status: %d", decision), nil)
	}

	return registrationRepo.SetApprovalStatus(ctx, id, decision)
}
