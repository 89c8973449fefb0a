package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsOpenForRegistration(t *testing.T) {
	now := time.Now()

	t.Run("active event before close time is open", func(t *testing.T) {
		event := Event{
			ID:                    uuid.New(),
			Status:                ACTIVE,
			RegistrationCloseTime: now.Add(time.Hour),
		}

		assert.True(t, event.IsOpenForRegistration(now))
	})

	t.Run("active event after close time is closed", func(t *testing.T) {
		event := Event{
			ID:                    uuid.New(),
			Status:                ACTIVE,
			RegistrationCloseTime: now.Add(-time.Hour),
		}

		assert.False(t, event.IsOpenForRegistration(now))
	})

	t.Run("expired event is closed even before close time", func(t *testing.T) {
		event := Event{
			ID:                    uuid.New(),
			Status:                EXPIRED,
			RegistrationCloseTime: now.Add(time.Hour),
		}

		assert.False(t, event.IsOpenForRegistration(now))
	})

	t.Run("close time itself is still open", func(t *testing.T) {
		event := Event{
			ID:                    uuid.New(),
			Status:                ACTIVE,
			RegistrationCloseTime: now,
		}

		assert.True(t, event.IsOpenForRegistration(now))
	})
}
