package api

import (
	"encoding/json"
	"net/http"
)

type ErrorCode string

const (
	InputValidationError ErrorCode = "InputValidationError"
	AuthError            ErrorCode = "AuthError"
	Forbidden            ErrorCode = "Forbidden"
	NotFound             ErrorCode = "NotFound"
	AlreadyExists        ErrorCode = "AlreadyExists"
	RegistrationClosed   ErrorCode = "RegistrationClosed"
	InvalidState         ErrorCode = "InvalidState"
	InvalidCursor        ErrorCode = "InvalidCursor"
	LimitOutOfBounds     ErrorCode = "LimitOutOfBounds"
	VersionConflict      ErrorCode = "VersionConflict"
	InternalError        ErrorCode = "InternalError"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (a *API) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		a.logger.Error("failed to marshal response body", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code": "InternalError", "message": "failed to build response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(jsonBody)
}

func (a *API) writeError(w http.ResponseWriter, statusCode int, code ErrorCode, message string) {
	a.writeJSON(w, statusCode, Error{Code: code, Message: message})
}
