package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campus-fest/event-checkin/events"
	"github.com/campus-fest/event-checkin/holders"
	"github.com/campus-fest/event-checkin/registration"
	"github.com/campus-fest/event-checkin/ticket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mockDB struct {
	getEvent    func(ctx context.Context, id uuid.UUID) (events.Event, error)
	getEvents   func(ctx context.Context, limit int32, cursor *string) (events.GetEventsResponse, error)
	createEvent func(ctx context.Context, event events.Event) error
	updateEvent func(ctx context.Context, event events.Event) error

	createRegistration        func(ctx context.Context, reg registration.Registration) error
	getRegistration           func(ctx context.Context, id uuid.UUID) (registration.Registration, error)
	getRegistrationsForEvent  func(ctx context.Context, eventId uuid.UUID, limit int32, cursor *string) (registration.GetRegistrationsResponse, error)
	getRegistrationsForHolder func(ctx context.Context, holderId uuid.UUID) ([]registration.Registration, error)
	setApprovalStatus         func(ctx context.Context, id uuid.UUID, newStatus registration.Status) (registration.Registration, error)
	tryRedeem                 func(ctx context.Context, id uuid.UUID, at time.Time) (registration.TryRedeemResult, error)

	createHolder     func(ctx context.Context, holder holders.Holder) error
	getHolder        func(ctx context.Context, id uuid.UUID) (holders.Holder, error)
	getHolderByEmail func(ctx context.Context, email string) (holders.Holder, error)
}

func (m *mockDB) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	return m.getEvent(ctx, id)
}

func (m *mockDB) GetEvents(ctx context.Context, limit int32, cursor *string) (events.GetEventsResponse, error) {
	return m.getEvents(ctx, limit, cursor)
}

func (m *mockDB) CreateEvent(ctx context.Context, event events.Event) error {
	return m.createEvent(ctx, event)
}

func (m *mockDB) UpdateEvent(ctx context.Context, event events.Event) error {
	return m.updateEvent(ctx, event)
}

func (m *mockDB) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	return m.createRegistration(ctx, reg)
}

func (m *mockDB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	return m.getRegistration(ctx, id)
}

func (m *mockDB) GetRegistrationsForEvent(ctx context.Context, eventId uuid.UUID, limit int32, cursor *string) (registration.GetRegistrationsResponse, error) {
	return m.getRegistrationsForEvent(ctx, eventId, limit, cursor)
}

func (m *mockDB) GetRegistrationsForHolder(ctx context.Context, holderId uuid.UUID) ([]registration.Registration, error) {
	return m.getRegistrationsForHolder(ctx, holderId)
}

func (m *mockDB) SetApprovalStatus(ctx context.Context, id uuid.UUID, newStatus registration.Status) (registration.Registration, error) {
	return m.setApprovalStatus(ctx, id, newStatus)
}

func (m *mockDB) TryRedeem(ctx context.Context, id uuid.UUID, at time.Time) (registration.TryRedeemResult, error) {
	return m.tryRedeem(ctx, id, at)
}

func (m *mockDB) CreateHolder(ctx context.Context, holder holders.Holder) error {
	return m.createHolder(ctx, holder)
}

func (m *mockDB) GetHolder(ctx context.Context, id uuid.UUID) (holders.Holder, error) {
	return m.getHolder(ctx, id)
}

func (m *mockDB) GetHolderByEmail(ctx context.Context, email string) (holders.Holder, error) {
	return m.getHolderByEmail(ctx, email)
}

var testTicketKey = bytes.Repeat([]byte{0x42}, ticket.KeySize)

func newTestAPI(t *testing.T, db *mockDB) *API {
	t.Helper()

	codec, err := ticket.NewCodec(testTicketKey)
	require.NoError(t, err)

	guard := NewGuard([]byte("test-jwt-secret"), time.Hour)
	return NewAPI(db, noopLogger, LOCAL, guard, ticket.NewIssuer(codec), ticket.NewService(codec, db, noopLogger))
}

func testCodec(t *testing.T) *ticket.Codec {
	t.Helper()

	codec, err := ticket.NewCodec(testTicketKey)
	require.NoError(t, err)
	return codec
}

func tokenFor(t *testing.T, a *API, id uuid.UUID, role holders.Role) string {
	t.Helper()

	token, _, err := a.guard.IssueToken(holders.Holder{
		ID:   id,
		Name: "Test Holder",
		Role: role,
	}, time.Now())
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reqBody)
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}
