package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campus-fest/event-checkin/registration"
	"github.com/google/uuid"
)

// Service validates a scanned payload and marks the ticket consumed.
// Exactly-once semantics rest entirely on the store's TryRedeem
// conditional write; the service never does a read-then-write of the
// redeemed flag, so concurrent scans from independent processes are safe.
type Service struct {
	codec         *Codec
	registrations registration.Repository
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(codec *Codec, registrations registration.Repository, logger *slog.Logger) *Service {
	return &Service{
		codec:         codec,
		registrations: registrations,
		logger:        logger,
		now:           time.Now,
	}
}

// RedeemResult is what gate staff see after a successful check-in.
type RedeemResult struct {
	RegistrationID uuid.UUID
	EventID        uuid.UUID
	RedeemedAt     time.Time
	Holder         registration.HolderProfile
}

// Redeem runs a single scan attempt for the given operator. Every failure
// is terminal for the attempt; re-scanning is the operator's decision.
func (s *Service) Redeem(ctx context.Context, opaque string, operatorId uuid.UUID) (RedeemResult, error) {
	payload, err := s.codec.Decode(opaque)
	if err != nil {
		return RedeemResult{}, err
	}

	reg, err := s.registrations.GetRegistration(ctx, payload.RegistrationID)
	if err != nil {
		var regErr *registration.Error
		if errors.As(err, &regErr) && regErr.Reason == registration.REASON_REGISTRATION_DOES_NOT_EXIST {
			return RedeemResult{}, NewTicketNotFoundError(fmt.Sprintf("No registration with ID %q", payload.RegistrationID), err)
		}

		return RedeemResult{}, NewStoreFailureError("Failed to look up registration", err)
	}

	if payload.EventID != reg.EventID {
		return RedeemResult{}, NewTicketMismatchError("event")
	}
	if payload.HolderID != reg.HolderID {
		return RedeemResult{}, NewTicketMismatchError("holder")
	}

	switch reg.Status {
	case registration.PENDING, registration.REJECTED:
		return RedeemResult{}, NewNotApprovedError(reg.Status)
	case registration.APPROVED:
	default:
		return RedeemResult{}, NewInvalidStateError(fmt.Sprintf("Registration %q has unknown status %d", reg.ID, reg.Status))
	}

	if reg.Redeemed {
		return RedeemResult{}, NewAlreadyRedeemedError(reg)
	}

	result, err := s.registrations.TryRedeem(ctx, reg.ID, s.now().UTC())
	if err != nil {
		return RedeemResult{}, NewStoreFailureError("Failed to redeem registration", err)
	}

	if !result.Applied {
		// A concurrent scan won the conditional write. Current carries the
		// winner's RedeemedAt for an accurate report.
		return RedeemResult{}, NewAlreadyRedeemedError(result.Current)
	}

	current := result.Current
	s.logger.InfoContext(ctx, "Ticket redeemed",
		slog.String("registrationId", current.ID.String()),
		slog.String("eventId", current.EventID.String()),
		slog.String("operatorId", operatorId.String()),
	)

	return RedeemResult{
		RegistrationID: current.ID,
		EventID:        current.EventID,
		RedeemedAt:     *current.RedeemedAt,
		Holder:         current.Profile,
	}, nil
}
