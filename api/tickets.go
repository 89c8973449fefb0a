package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/campus-fest/event-checkin/holders"
	"github.com/campus-fest/event-checkin/registration"
	"github.com/campus-fest/event-checkin/ticket"
	"github.com/google/uuid"
)

func (a *API) getTicket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid registration ID")
		return
	}

	reg, err := a.db.GetRegistration(r.Context(), id)
	if err != nil {
		var regErr *registration.Error
		if errors.As(err, &regErr) && regErr.Reason == registration.REASON_REGISTRATION_DOES_NOT_EXIST {
			a.writeError(w, http.StatusNotFound, NotFound, "Registration not found")
			return
		}

		a.logger.Error("Failed to get registration for ticket", "error", err, "registrationId", id)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to issue ticket")
		return
	}

	identity := getIdentityFromCtx(r.Context())
	if identity.Role != holders.OPERATOR && reg.HolderID != identity.HolderID {
		a.writeError(w, http.StatusForbidden, Forbidden, "This registration belongs to someone else")
		return
	}

	opaque, err := a.issuer.Issue(reg)
	if err != nil {
		var ticketErr *ticket.Error
		if errors.As(err, &ticketErr) && ticketErr.Reason == ticket.REASON_INVALID_STATE {
			a.writeError(w, http.StatusConflict, InvalidState, "Tickets are only issued for approved registrations")
			return
		}

		a.logger.Error("Failed to issue ticket", "error", err, "registrationId", id)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to issue ticket")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"ticket": opaque})
}

type scanRequest struct {
	Ticket string `json:"ticket"`
}

type scanDetail struct {
	Status     string     `json:"status,omitempty"`
	RedeemedAt *time.Time `json:"redeemedAt,omitempty"`
	HolderName string     `json:"holderName,omitempty"`
}

type scanResponse struct {
	Ok             bool        `json:"ok"`
	Reason         string      `json:"reason,omitempty"`
	Message        string      `json:"message,omitempty"`
	RegistrationId string      `json:"registrationId,omitempty"`
	RedeemedAt     *time.Time  `json:"redeemedAt,omitempty"`
	Holder         *apiProfile `json:"holder,omitempty"`
	Detail         *scanDetail `json:"detail,omitempty"`
}

func (a *API) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticket == "" {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "A ticket payload is required")
		return
	}

	identity := getIdentityFromCtx(r.Context())

	result, err := a.redeemer.Redeem(r.Context(), req.Ticket, identity.HolderID)
	if err != nil {
		var ticketErr *ticket.Error
		if !errors.As(err, &ticketErr) || ticketErr.Reason == ticket.REASON_STORE_FAILURE {
			a.metrics.scansTotal.WithLabelValues("store_failure").Inc()
			a.logger.Error("Scan failed against the store", "error", err)
			a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to process scan")
			return
		}

		a.metrics.scansTotal.WithLabelValues(string(ticketErr.Reason)).Inc()
		a.writeScanRejection(w, ticketErr)
		return
	}

	a.metrics.scansTotal.WithLabelValues("ok").Inc()

	holder := profileToApiProfile(result.Holder)
	a.writeJSON(w, http.StatusOK, scanResponse{
		Ok:             true,
		RegistrationId: result.RegistrationID.String(),
		RedeemedAt:     &result.RedeemedAt,
		Holder:         &holder,
	})
}

// writeScanRejection maps every ticket-invalid outcome to a structured
// body so the scanner UI can show gate staff what went wrong without
// string-matching messages.
func (a *API) writeScanRejection(w http.ResponseWriter, ticketErr *ticket.Error) {
	var statusCode int
	switch ticketErr.Reason {
	case ticket.REASON_DECODE_FAILED, ticket.REASON_TICKET_MISMATCH:
		statusCode = http.StatusBadRequest
	case ticket.REASON_TICKET_NOT_FOUND:
		statusCode = http.StatusNotFound
	case ticket.REASON_NOT_APPROVED:
		statusCode = http.StatusForbidden
	case ticket.REASON_ALREADY_REDEEMED:
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusUnprocessableEntity
	}

	resp := scanResponse{
		Ok:      false,
		Reason:  string(ticketErr.Reason),
		Message: ticketErr.Message,
	}

	detail := scanDetail{}
	hasDetail := false
	if ticketErr.CurrentStatus != nil {
		detail.Status = ticketErr.CurrentStatus.String()
		hasDetail = true
	}
	if ticketErr.RedeemedAt != nil {
		detail.RedeemedAt = ticketErr.RedeemedAt
		hasDetail = true
	}
	if ticketErr.Holder != nil {
		detail.HolderName = ticketErr.Holder.FullName
		hasDetail = true
	}
	if hasDetail {
		resp.Detail = &detail
	}

	a.writeJSON(w, statusCode, resp)
}
