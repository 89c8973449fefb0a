package ticket

import (
	"fmt"

	"github.com/campus-fest/event-checkin/registration"
)

// Issuer derives the scannable payload for an approved registration.
// Issuance has no side effects and may be repeated; each call produces a
// freshly encrypted but functionally equivalent payload.
type Issuer struct {
	codec *Codec
}

func NewIssuer(codec *Codec) *Issuer {
	return &Issuer{codec: codec}
}

// Issue requires the registration to be APPROVED. The holder-facing
// surface gates this already; the check here is the invariant of record.
func (i *Issuer) Issue(reg registration.Registration) (string, error) {
	if reg.Status != registration.APPROVED {
		return "", NewInvalidStateError(fmt.Sprintf("Cannot issue a ticket for a %s registration", reg.Status))
	}

	opaque, err := i.codec.Encode(Payload{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		HolderID:       reg.HolderID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode ticket for registration %q: %w", reg.ID, err)
	}

	return opaque, nil
}
