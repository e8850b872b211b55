package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Error codes shared with the dashboard client.
const (
	CodeFetch       = "SYNC_001"
	CodeChannel     = "SYNC_002"
	CodeWrite       = "PAYOUT_001"
	CodeUnauth      = "AUTH_001"
	CodeInvalidTok  = "AUTH_002"
	CodeValidation  = "REQ_001"
	CodeNotFound    = "REQ_002"
	CodeRateLimited = "RATE_001"
)

// ---- Synchronization (SYNC) ----

// ErrFetch is a read failure: the list stays empty or stale.
func ErrFetch(entity string, err error) *AppError {
	return Wrap(CodeFetch, fmt.Sprintf("Failed to load %s", entity), http.StatusBadGateway, err)
}

// ErrChannel is a realtime subscription failure: the view degrades to fetch-only.
func ErrChannel(err error) *AppError {
	return Wrap(CodeChannel, "Realtime channel unavailable", http.StatusServiceUnavailable, err)
}

// ---- Payouts (PAYOUT) ----

// ErrWrite carries the remote function's message for direct display.
func ErrWrite(message string, err error) *AppError {
	if message == "" {
		message = "Payout request failed"
	}
	return Wrap(CodeWrite, message, http.StatusUnprocessableEntity, err)
}

// ---- Authentication (AUTH) ----

func ErrUnauthenticated() *AppError {
	return New(CodeUnauth, "No authenticated session", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidTok, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Signed hooks (SEC) ----

func ErrInvalidSignature() *AppError {
	return New("SEC_001", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_002", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_003", "Nonce has already been used", http.StatusForbidden)
}

// ---- Requests (REQ) ----

// Validation returns a request shape error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrBodyTooLarge(limit int64) *AppError {
	return New("REQ_003", fmt.Sprintf("Request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System (SYS) ----

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
