package holders

import "fmt"

type ErrorReason string

const (
	REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE                 ErrorReason = "FAILED_TO_WRITE"
	REASON_HOLDER_DOES_NOT_EXIST           ErrorReason = "HOLDER_DOES_NOT_EXIST"
	REASON_HOLDER_ALREADY_EXISTS           ErrorReason = "HOLDER_ALREADY_EXISTS"
	REASON_FAILED_TO_FETCH                 ErrorReason = "FAILED_TO_FETCH"
	REASON_INVALID_CREDENTIALS             ErrorReason = "INVALID_CREDENTIALS"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newHolderError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newHolderError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newHolderError(REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL, message, cause)
}

func NewHolderAlreadyExistsError(message string, cause error) *Error {
	return newHolderError(REASON_HOLDER_ALREADY_EXISTS, message, cause)
}

func NewHolderDoesNotExistError(message string, cause error) *Error {
	return newHolderError(REASON_HOLDER_DOES_NOT_EXIST, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newHolderError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewInvalidCredentialsError(message string, cause error) *Error {
	return newHolderError(REASON_INVALID_CREDENTIALS, message, cause)
}
