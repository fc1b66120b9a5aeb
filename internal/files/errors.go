package files

import (
	"errors"
	"net/http"
)

// Domain errors for ingestion operations.
var (
	// ErrValidation rejects a registration before anything is stored.
	ErrValidation = errors.New("invalid upload")
	// ErrStore wraps record store failures surfaced to callers.
	ErrStore = errors.New("record store unavailable")
	// ErrTransfer wraps object store write failures. It never reaches a
	// caller; it becomes the errorReason of an ERROR record.
	ErrTransfer = errors.New("object store write failed")
	// ErrNotify wraps classification request publish failures.
	ErrNotify = errors.New("classification request failed")
	// ErrNotFound indicates no record exists for the file id.
	ErrNotFound = errors.New("file not found")
	// ErrResultsNotFound indicates the classifier has not produced results for the file id.
	ErrResultsNotFound = errors.New("no classification results for this file")
	// ErrBusy indicates the transfer pool has no admission capacity.
	ErrBusy = errors.New("too many uploads in progress")
	// ErrFileTooLarge indicates the request body exceeded the upload limit.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrSuperseded is returned by Store settle operations when the record is
	// no longer the REQUESTED instance at the given storage location.
	ErrSuperseded = errors.New("record superseded")
)

// MapHTTPStatus maps ingestion errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrResultsNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
