package dynamo

import (
	"context"
	"testing"

	"github.com/campus-fest/event-checkin/holders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateHolder(t *testing.T) {
	ctx := context.Background()

	t.Run("create and fetch by id and email", func(t *testing.T) {
		resetTable(ctx)

		holder, err := holders.New("Jane Doe", "jane@example.com", "hunter22", holders.HOLDER)
		require.NoError(t, err)
		require.NoError(t, db.CreateHolder(ctx, holder))

		byId, err := db.GetHolder(ctx, holder.ID)
		require.NoError(t, err)
		assert.Equal(t, holder.Email, byId.Email)
		assert.True(t, byId.CheckPassword("hunter22"))

		byEmail, err := db.GetHolderByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, holder.ID, byEmail.ID)
		assert.Equal(t, holders.HOLDER, byEmail.Role)

		mixedCase, err := db.GetHolderByEmail(ctx, "Jane@Example.com")
		require.NoError(t, err)
		assert.Equal(t, holder.ID, mixedCase.ID)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		resetTable(ctx)

		first, err := holders.New("Jane Doe", "jane@example.com", "hunter22", holders.HOLDER)
		require.NoError(t, err)
		require.NoError(t, db.CreateHolder(ctx, first))

		second, err := holders.New("Other Jane", "jane@example.com", "password", holders.HOLDER)
		require.NoError(t, err)

		err = db.CreateHolder(ctx, second)
		var holderErr *holders.Error
		require.ErrorAs(t, err, &holderErr)
		assert.Equal(t, holders.REASON_HOLDER_ALREADY_EXISTS, holderErr.Reason)
	})

	t.Run("unknown email", func(t *testing.T) {
		resetTable(ctx)

		_, err := db.GetHolderByEmail(ctx, "nobody@example.com")
		var holderErr *holders.Error
		require.ErrorAs(t, err, &holderErr)
		assert.Equal(t, holders.REASON_HOLDER_DOES_NOT_EXIST, holderErr.Reason)
	})
}
