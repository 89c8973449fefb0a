package ticket

import (
	"testing"
	"time"

	"github.com/campus-fest/event-checkin/registration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	codec, err := NewCodec(testKey(t))
	require.NoError(t, err)
	issuer := NewIssuer(codec)

	t.Run("issues a decodable ticket for an approved registration", func(t *testing.T) {
		reg := registration.Registration{
			ID:       uuid.New(),
			EventID:  uuid.New(),
			HolderID: uuid.New(),
			Status:   registration.APPROVED,
		}

		opaque, err := issuer.Issue(reg)
		require.NoError(t, err)

		payload, err := codec.Decode(opaque)
		require.NoError(t, err)
		assert.Equal(t, reg.ID, payload.RegistrationID)
		assert.Equal(t, reg.EventID, payload.EventID)
		assert.Equal(t, reg.HolderID, payload.HolderID)
	})

	t.Run("issuance is repeatable", func(t *testing.T) {
		reg := registration.Registration{
			ID:       uuid.New(),
			EventID:  uuid.New(),
			HolderID: uuid.New(),
			Status:   registration.APPROVED,
		}

		first, err := issuer.Issue(reg)
		require.NoError(t, err)
		second, err := issuer.Issue(reg)
		require.NoError(t, err)

		firstPayload, err := codec.Decode(first)
		require.NoError(t, err)
		secondPayload, err := codec.Decode(second)
		require.NoError(t, err)
		assert.Equal(t, firstPayload, secondPayload)
	})

	t.Run("refuses non-approved registrations", func(t *testing.T) {
		for _, status := range []registration.Status{registration.PENDING, registration.REJECTED} {
			reg := registration.Registration{
				ID:       uuid.New(),
				EventID:  uuid.New(),
				HolderID: uuid.New(),
				Status:   status,
			}

			_, err := issuer.Issue(reg)
			assertReason(t, err, REASON_INVALID_STATE)
		}
	})

	t.Run("still issues for an already redeemed registration", func(t *testing.T) {
		redeemedAt := time.Now()
		reg := registration.Registration{
			ID:         uuid.New(),
			EventID:    uuid.New(),
			HolderID:   uuid.New(),
			Status:     registration.APPROVED,
			Redeemed:   true,
			RedeemedAt: &redeemedAt,
		}

		_, err := issuer.Issue(reg)
		assert.NoError(t, err)
	})
}
