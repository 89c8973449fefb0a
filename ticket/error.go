package ticket

import (
	"fmt"
	"time"

	"github.com/campus-fest/event-checkin/registration"
)

type ErrorReason string

const (
	// REASON_DECODE_FAILED: the scanned payload could not be decrypted or
	// deserialized. Nothing was looked up.
	REASON_DECODE_FAILED ErrorReason = "DECODE_FAILED"
	// REASON_TICKET_NOT_FOUND: the payload decoded but no registration
	// matches its identifier.
	REASON_TICKET_NOT_FOUND ErrorReason = "TICKET_NOT_FOUND"
	// REASON_TICKET_MISMATCH: a decoded field disagrees with the stored
	// registration. Covers both event and holder mismatches.
	REASON_TICKET_MISMATCH ErrorReason = "TICKET_MISMATCH"
	// REASON_NOT_APPROVED: the registration is PENDING or REJECTED.
	REASON_NOT_APPROVED ErrorReason = "NOT_APPROVED"
	// REASON_ALREADY_REDEEMED: the registration was redeemed before this
	// attempt, by this or a concurrent scan.
	REASON_ALREADY_REDEEMED ErrorReason = "ALREADY_REDEEMED"
	// REASON_INVALID_STATE: a caller-side precondition violation, e.g.
	// issuing a ticket for a non-approved registration.
	REASON_INVALID_STATE ErrorReason = "INVALID_STATE"
	// REASON_STORE_FAILURE: the registration store could not be reached.
	// Not a statement about the ticket's validity.
	REASON_STORE_FAILURE ErrorReason = "STORE_FAILURE"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error

	// CurrentStatus is set for REASON_NOT_APPROVED.
	CurrentStatus *registration.Status
	// RedeemedAt and Holder are set for REASON_ALREADY_REDEEMED so gate
	// staff can see who already entered and when.
	RedeemedAt *time.Time
	Holder     *registration.HolderProfile
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newTicketError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewDecodeFailedError(message string, cause error) *Error {
	return newTicketError(REASON_DECODE_FAILED, message, cause)
}

func NewTicketNotFoundError(message string, cause error) *Error {
	return newTicketError(REASON_TICKET_NOT_FOUND, message, cause)
}

func NewTicketMismatchError(field string) *Error {
	return newTicketError(REASON_TICKET_MISMATCH, fmt.Sprintf("Ticket %s does not match the registration", field), nil)
}

func NewNotApprovedError(status registration.Status) *Error {
	err := newTicketError(REASON_NOT_APPROVED, fmt.Sprintf("Registration is not approved, current status: %s", status), nil)
	err.CurrentStatus = &status
	return err
}

func NewAlreadyRedeemedError(reg registration.Registration) *Error {
	err := newTicketError(REASON_ALREADY_REDEEMED, "Ticket has already been used", nil)
	err.RedeemedAt = reg.RedeemedAt
	profile := reg.Profile
	err.Holder = &profile
	return err
}

func NewInvalidStateError(message string) *Error {
	return newTicketError(REASON_INVALID_STATE, message, nil)
}

func NewStoreFailureError(message string, cause error) *Error {
	return newTicketError(REASON_STORE_FAILURE, message, cause)
}
