package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-fest/event-checkin/registration"
	"github.com/campus-fest/event-checkin/slices"
	"github.com/google/uuid"
)

type apiProfile struct {
	FullName    string `json:"fullName"`
	RollNumber  string `json:"rollNumber"`
	Department  string `json:"department"`
	Section     string `json:"section"`
	Year        string `json:"year"`
	PhoneNumber string `json:"phoneNumber"`
	CollegeName string `json:"collegeName"`
	TeamName    string `json:"teamName,omitempty"`
}

type apiRegistration struct {
	Id            string     `json:"id"`
	EventId       string     `json:"eventId"`
	HolderId      string     `json:"holderId"`
	Status        string     `json:"status"`
	Redeemed      bool       `json:"redeemed"`
	RedeemedAt    *time.Time `json:"redeemedAt,omitempty"`
	RegisteredAt  time.Time  `json:"registeredAt"`
	PaymentRef    string     `json:"paymentRef"`
	TransactionId string     `json:"transactionId,omitempty"`
	Profile       apiProfile `json:"profile"`
}

func profileToApiProfile(profile registration.HolderProfile) apiProfile {
	return apiProfile(profile)
}

func apiProfileToProfile(profile apiProfile) registration.HolderProfile {
	return registration.HolderProfile(profile)
}

func registrationToApiRegistration(reg registration.Registration) apiRegistration {
	return apiRegistration{
		Id:            reg.ID.String(),
		EventId:       reg.EventID.String(),
		HolderId:      reg.HolderID.String(),
		Status:        reg.Status.String(),
		Redeemed:      reg.Redeemed,
		RedeemedAt:    reg.RedeemedAt,
		RegisteredAt:  reg.RegisteredAt,
		PaymentRef:    reg.PaymentRef,
		TransactionId: reg.TransactionID,
		Profile:       profileToApiProfile(reg.Profile),
	}
}

type registerRequest struct {
	PaymentRef    string     `json:"paymentRef"`
	TransactionId string     `json:"transactionId"`
	Profile       apiProfile `json:"profile"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid event ID")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid body")
		return
	}
	if req.PaymentRef == "" {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Payment proof reference is required")
		return
	}
	if req.Profile.FullName == "" || req.Profile.RollNumber == "" {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Profile fullName and rollNumber are required")
		return
	}

	identity := getIdentityFromCtx(r.Context())

	reg := registration.Registration{
		ID:            uuid.New(),
		EventID:       eventId,
		HolderID:      identity.HolderID,
		Status:        registration.PENDING,
		RegisteredAt:  time.Now().UTC(),
		PaymentRef:    req.PaymentRef,
		TransactionID: req.TransactionId,
		Profile:       apiProfileToProfile(req.Profile),
	}

	if err := registration.AttemptRegistration(r.Context(), reg, a.db, a.db); err != nil {
		var regErr *registration.Error
		if errors.As(err, &regErr) {
			switch regErr.Reason {
			case registration.REASON_ASSOCIATED_EVENT_DOES_NOT_EXIST:
				a.writeError(w, http.StatusNotFound, NotFound, "Event to register for was not found")
				return
			case registration.REASON_EVENT_NOT_OPEN:
				a.writeError(w, http.StatusConflict, RegistrationClosed, "Registration for this event has closed")
				return
			case registration.REASON_REGISTRATION_ALREADY_EXISTS:
				a.writeError(w, http.StatusConflict, AlreadyExists, "You are already registered for this event")
				return
			}
		}

		a.logger.Error("Error trying to register", "error", err)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to register")
		return
	}

	a.writeJSON(w, http.StatusCreated, registrationToApiRegistration(reg))
}

func (a *API) myRegistrations(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromCtx(r.Context())

	regs, err := a.db.GetRegistrationsForHolder(r.Context(), identity.HolderID)
	if err != nil {
		a.logger.Error("Failed to get registrations for holder", "error", err, "holderId", identity.HolderID)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to get registrations")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"data": slices.Map(regs, registrationToApiRegistration),
	})
}

func (a *API) eventRegistrations(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid event ID")
		return
	}

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

	result, err := a.db.GetRegistrationsForEvent(r.Context(), eventId, int32(limit), cursor)
	if err != nil {
		var regErr *registration.Error
		if errors.As(err, &regErr) && regErr.Reason == registration.REASON_INVALID_CURSOR {
			a.writeError(w, http.StatusBadRequest, InvalidCursor, "Cursor is invalid")
			return
		}

		a.logger.Error("Failed to get registrations for event", "error", err, "eventId", eventId)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to get registrations")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"data":        slices.Map(result.Data, registrationToApiRegistration),
		"cursor":      result.Cursor,
		"hasNextPage": result.HasNextPage,
	})
}

type reviewRequest struct {
	Status string `json:"status"`
}

func (a *API) reviewRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid registration ID")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid body")
		return
	}

	var decision registration.Status
	switch req.Status {
	case registration.APPROVED.String():
		decision = registration.APPROVED
	case registration.REJECTED.String():
		decision = registration.REJECTED
	default:
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Status must be APPROVED or REJECTED")
		return
	}

	reg, err := registration.Review(r.Context(), id, decision, a.db)
	if err != nil {
		var regErr *registration.Error
		if errors.As(err, &regErr) {
			switch regErr.Reason {
			case registration.REASON_REGISTRATION_DOES_NOT_EXIST:
				a.writeError(w, http.StatusNotFound, NotFound, "Registration not found")
				return
			case registration.REASON_INVALID_TRANSITION:
				a.writeError(w, http.StatusConflict, InvalidState, "Registration is no longer pending")
				return
			}
		}

		a.logger.Error("Failed to review registration", "error", err, "registrationId", id)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to review registration")
		return
	}

	a.writeJSON(w, http.StatusOK, registrationToApiRegistration(reg))
}
