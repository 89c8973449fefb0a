package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/campus-fest/event-checkin/holders"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type holderResponse struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid body")
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Name, email, and a password of at least 8 characters are required")
		return
	}

	// Self-service signup only ever creates plain holders. Operators are
	// provisioned at deploy time.
	holder, err := holders.New(req.Name, req.Email, req.Password, holders.HOLDER)
	if err != nil {
		a.logger.Error("Failed to build holder", "error", err)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to sign up")
		return
	}

	if err := a.db.CreateHolder(r.Context(), holder); err != nil {
		var holderErr *holders.Error
		if errors.As(err, &holderErr) && holderErr.Reason == holders.REASON_HOLDER_ALREADY_EXISTS {
			a.writeError(w, http.StatusConflict, AlreadyExists, "An account with this email already exists")
			return
		}

		a.logger.Error("Failed to create holder", "error", err)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to sign up")
		return
	}

	a.writeJSON(w, http.StatusCreated, holderResponse{
		Id:    holder.ID.String(),
		Name:  holder.Name,
		Email: holder.Email,
		Role:  holder.Role.String(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, InputValidationError, "Invalid body")
		return
	}

	holder, err := a.db.GetHolderByEmail(r.Context(), req.Email)
	if err != nil {
		var holderErr *holders.Error
		if errors.As(err, &holderErr) && holderErr.Reason == holders.REASON_HOLDER_DOES_NOT_EXIST {
			a.writeError(w, http.StatusUnauthorized, AuthError, "Invalid email or password")
			return
		}

		a.logger.Error("Failed to fetch holder for login", "error", err)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to log in")
		return
	}

	if !holder.CheckPassword(req.Password) {
		a.writeError(w, http.StatusUnauthorized, AuthError, "Invalid email or password")
		return
	}

	token, expiresAt, err := a.guard.IssueToken(holder, time.Now())
	if err != nil {
		a.logger.Error("Failed to issue token", "error", err)
		a.writeError(w, http.StatusInternalServerError, InternalError, "Failed to log in")
		return
	}

	a.writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      holder.Role.String(),
	})
}
