package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/campus-fest/event-checkin/holders"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	t.Run("creates a holder account", func(t *testing.T) {
		var created holders.Holder
		db := &mockDB{
			createHolder: func(ctx context.Context, holder holders.Holder) error {
				created = holder
				return nil
			},
		}
		a := newTestAPI(t, db)

		w := doJSON(t, a.Routes(), http.MethodPost, "/auth/signup", "", map[string]string{
			"name":     "Asha Rao",
			"email":    "Asha@Example.com",
			"password": "correct horse",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "asha@example.com", created.Email)
		assert.Equal(t, holders.HOLDER, created.Role)
		assert.True(t, created.CheckPassword("correct horse"))

		body := decodeBody[holderResponse](t, w)
		assert.Equal(t, created.ID.String(), body.Id)
		assert.Equal(t, "HOLDER", body.Role)
	})

	t.Run("never grants the operator role", func(t *testing.T) {
		var created holders.Holder
		db := &mockDB{
			createHolder: func(ctx context.Context, holder holders.Holder) error {
				created = holder
				return nil
			},
		}
		a := newTestAPI(t, db)

		w := doJSON(t, a.Routes(), http.MethodPost, "/auth/signup", "", map[string]string{
			"name":     "Sneaky",
			"email":    "sneaky@example.com",
			"password": "password123",
			"role":     "OPERATOR",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, holders.HOLDER, created.Role)
	})

	t.Run("rejects duplicate emails", func(t *testing.T) {
		db := &mockDB{
			createHolder: func(ctx context.Context, holder holders.Holder) error {
				return holders.NewHolderAlreadyExistsError("taken", nil)
			},
		}
		a := newTestAPI(t, db)

		w := doJSON(t, a.Routes(), http.MethodPost, "/auth/signup", "", map[string]string{
			"name":     "Asha Rao",
			"email":    "asha@example.com",
			"password": "correct horse",
		})

		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		a := newTestAPI(t, &mockDB{})

		w := doJSON(t, a.Routes(), http.MethodPost, "/auth/signup", "", map[string]string{
			"name":     "Asha Rao",
			"email":    "asha@example.com",
			"password": "short",
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	holder, err := holders.New("Asha Rao", "asha@example.com", "correct horse", holders.HOLDER)
	require.NoError(t, err)

	dbFor := func(h holders.Holder) *mockDB {
		return &mockDB{
			getHolderByEmail: func(ctx context.Context, email string) (holders.Holder, error) {
				if email == h.Email {
					return h, nil
				}
				return holders.Holder{}, holders.NewHolderDoesNotExistError("no such account", nil)
			},
		}
	}

	t.Run("returns a usable token", func(t *testing.T) {
		a := newTestAPI(t, dbFor(holder))

		w := doJSON(t, a.Routes(), http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "asha@example.com",
			"password": "correct horse",
		})

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[loginResponse](t, w)
		require.NotEmpty(t, body.Token)
		assert.Equal(t, "HOLDER", body.Role)

		identity, err := a.guard.ParseToken(body.Token)
		require.NoError(t, err)
		assert.Equal(t, holder.ID, identity.HolderID)
		assert.Equal(t, holders.HOLDER, identity.Role)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		a := newTestAPI(t, dbFor(holder))

		w := doJSON(t, a.Routes(), http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "asha@example.com",
			"password": "wrong horse",
		})

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects an unknown email", func(t *testing.T) {
		a := newTestAPI(t, dbFor(holder))

		w := doJSON(t, a.Routes(), http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "correct horse",
		})

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthGuard(t *testing.T) {
	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		a := newTestAPI(t, &mockDB{})

		otherGuard := NewGuard([]byte("some-other-secret"), time.Hour)
		token, _, err := otherGuard.IssueToken(holders.Holder{ID: uuid.New(), Role: holders.HOLDER}, time.Now())
		require.NoError(t, err)

		w := doJSON(t, a.Routes(), http.MethodGet, "/registrations/mine", token, nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
