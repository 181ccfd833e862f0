package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to clients. The kiosk and the admin UI both switch on
// these, so the set is fixed.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeDatabase            = "DATABASE_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeTextTooLong         = "TEXT_TOO_LONG"
	CodeVoicevoxUnavailable = "VOICEVOX_NOT_AVAILABLE"
	CodeSynthesisFailed     = "SYNTHESIS_FAILED"
)

// Error is the service-level error carried from services to handlers.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status the error maps to.
func (e *Error) Status() int { return e.status }

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, status: http.StatusBadRequest}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, status: http.StatusNotFound}
}

func Database(message string, cause error) *Error {
	return &Error{Code: CodeDatabase, Message: message, status: http.StatusInternalServerError, cause: cause}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message, status: http.StatusUnauthorized}
}

func TextTooLong(message string) *Error {
	return &Error{Code: CodeTextTooLong, Message: message, status: http.StatusBadRequest}
}

func VoicevoxUnavailable(message string) *Error {
	return &Error{Code: CodeVoicevoxUnavailable, Message: message, status: http.StatusServiceUnavailable}
}

func SynthesisFailed(message string, cause error) *Error {
	return &Error{Code: CodeSynthesisFailed, Message: message, status: http.StatusInternalServerError, cause: cause}
}

// AsError extracts an *Error, wrapping unclassified failures as DATABASE_ERROR.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Database("処理に失敗しました", err)
}
