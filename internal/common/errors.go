// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Pipeline errors. Every stage of the swap pipeline fails with exactly one of
// these kinds, wrapped with stage context so errors.Is still matches.
var (
	ErrNoRouteAvailable       = errors.New("no route available for token pair")
	ErrInstructionFetchFailed = errors.New("failed to fetch swap instructions")
	ErrDecode                 = errors.New("failed to decode instruction payload")
	ErrLookupTableUnavailable = errors.New("address lookup table unavailable")
	ErrTransactionBuildFailed = errors.New("failed to build transaction")
	ErrSigningFailed          = errors.New("failed to sign transaction")
	ErrBundleRejected         = errors.New("bundle rejected by block engine")
	ErrSubmissionTransport    = errors.New("bundle submission transport failure")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletExists        = errors.New("wallet already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// IsTransient reports whether the error kind is worth retrying with the same
// input. Decode and build failures are deterministic and are not.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSubmissionTransport) ||
		errors.Is(err, ErrLookupTableUnavailable) ||
		errors.Is(err, ErrInstructionFetchFailed)
}

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorUnauthorized(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    messageOrDefault(msg, "Unauthorized"),
	}
}
