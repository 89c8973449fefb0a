package holders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("hashes the password and lowercases the email", func(t *testing.T) {
		h, err := New("Jane Doe", "Jane.Doe@Example.com", "hunter22", HOLDER)
		require.NoError(t, err)

		assert.Equal(t, "jane.doe@example.com", h.Email)
		assert.NotContains(t, string(h.PasswordHash), "hunter22")
		assert.True(t, h.CheckPassword("hunter22"))
		assert.False(t, h.CheckPassword("hunter23"))
	})

	t.Run("operators carry the operator role", func(t *testing.T) {
		h, err := New("Gate Staff", "gate@example.com", "secret", OPERATOR)
		require.NoError(t, err)

		assert.Equal(t, OPERATOR, h.Role)
		assert.Equal(t, "OPERATOR", h.Role.String())
	})
}
