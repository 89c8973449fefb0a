package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/campus-fest/event-checkin/events"
	"github.com/campus-fest/event-checkin/slices"
	"github.com/google/uuid"
)

type apiEvent struct {
	Id                    string    `json:"id"`
	Version               int       `json:"version"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	Venue                 string    `json:"venue"`
	StartTime             time.Time `json:"startTime"`
	RegistrationCloseTime time.Time `json:"registrationCloseTime"`
	Fee                   apiFee    `json:"fee"`
	Status                string    `json:"status"`
}

type apiFee struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func eventToApiEvent(event events.Event) apiEvent {
	fee := apiFee{}
	if event.Fee != nil {
		fee = apiFee{Amount: event.Fee.Amount(), Currency: event.Fee.Currency().Code}
	}

	return apiEvent{
		Id:                    event.ID.String(),
		Version:               event.Version,
		Name:                  event.Name,
		Description:           event.Description,
		Venue:                 event.Venue,
		StartTime:             event.StartTime,
		RegistrationCloseTime: event.RegistrationCloseTime,
		Fee:                   fee,
		Status:                event.Status.String(),
	}
}

type eventRequest struct {
	Version               int       `json:"version"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	Venue                 string    `json:"venue"`
	StartTime             time.Time `json:"startTime"`
	RegistrationCloseTime time.Time `json:"registrationCloseTime"`
	Fee                   apiFee    `json:"fee"`
	Status                *string   `json:"status,omitempty"`
}

func (a *API) getEvents(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		userLimit, err := strconv.Atoi(rawLimit)
		if err != nil || userLimit < 1 || userLimit > 50 {
			a.writeError(w, http.StatusBadRequest, LimitOutOfBounds, "Limit must be between 1 and 50")
			return
		}
		limit = userLimit
	}

	var cursor *string
	if rawCursor := r.URL.Query().Get("cursor"); rawCursor != "" {
		cursor = &rawCursor
	}

	result, err := a.db.GetEvents(r.Context(), int32(limit), cursor)
	if err != nil {
		a.logger.Error("Failed to get events from the DB", "error", err)

		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_INVALID_CURSOR {
			a.writeError(w, http.StatusBadRequest, InvalidCursor, "Passed in cursor is invalid")
			return
		}
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to get events")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"data":        slices.Map(result.Data, eventToApiEvent),
		"cursor":      result.Cursor,
		"hasNextPage": result.HasNextPage,
	})
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid event ID")
		return
	}

	event, err := a.db.GetEvent(r.Context(), id)
	if err != nil {
		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_EVENT_DOES_NOT_EXIST {
			a.writeError(w, http.StatusNotFound, NotFound, "Event not found")
			return
		}

		a.logger.Error("Failed to get event", "error", err, "eventId", id)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to get event")
		return
	}

	a.writeJSON(w, http.StatusOK, eventToApiEvent(event))
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid body")
		return
	}
	if req.Name == "" || req.Venue == "" || req.StartTime.IsZero() || req.RegistrationCloseTime.IsZero() {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Name, venue, startTime, and registrationCloseTime are required")
		return
	}

	event := events.Event{
		ID:                    uuid.New(),
		Version:               1,
		Name:                  req.Name,
		Description:           req.Description,
		Venue:                 req.Venue,
		StartTime:             req.StartTime,
		RegistrationCloseTime: req.RegistrationCloseTime,
		Fee:                   money.New(req.Fee.Amount, req.Fee.Currency),
		Status:                events.ACTIVE,
	}

	if err := a.db.CreateEvent(r.Context(), event); err != nil {
		a.logger.Error("Failed to create event", "error", err)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to create event")
		return
	}

	a.writeJSON(w, http.StatusCreated, eventToApiEvent(event))
}

func (a *API) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid event ID")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid body")
		return
	}

	status := events.ACTIVE
	if req.Status != nil {
		switch *req.Status {
		case events.ACTIVE.String():
			status = events.ACTIVE
		case events.EXPIRED.String():
			status = events.EXPIRED
		default:
			a.writeError(w, http.StatusBadRequest, InputValidationError, "Status must be ACTIVE or EXPIRED")
			return
		}
	}

	event := events.Event{
		ID:                    id,
		Version:               req.Version + 1,
		Name:                  req.Name,
		Description:           req.Description,
		Venue:                 req.Venue,
		StartTime:             req.StartTime,
		RegistrationCloseTime: req.RegistrationCloseTime,
		Fee:                   money.New(req.Fee.Amount, req.Fee.Currency),
		Status:                status,
	}

	if err := a.db.UpdateEvent(r.Context(), event); err != nil {
		var eventErr *events.Error
		if errors.As(err, &eventErr) && eventErr.Reason == events.REASON_VERSION_CONFLICT {
			a.writeError(w, http.StatusConflict, VersionConflict, "Event was modified concurrently, re-fetch and retry")
			return
		}

		a.logger.Error("Failed to update event", "error", err, "eventId", id)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to update event")
		return
	}

	a.writeJSON(w, http.StatusOK, eventToApiEvent(event))
}
