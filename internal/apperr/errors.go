// Package apperr defines the error taxonomy shared by the client and host.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrOperationFailed = errors.New("operation failed")
	ErrValidation      = errors.New("validation failed")

	// Audio workflow.
	ErrModelPreparation = errors.New("model preparation failed")
	ErrModelUnavailable = errors.New("speech model unavailable")
	ErrNotReady         = errors.New("speech model not ready")
	ErrRecordingStart   = errors.New("recording start failed")
	ErrRecordingStop    = errors.New("recording stop failed")
	ErrInvalidState     = errors.New("invalid state for operation")
	ErrClosed           = errors.New("closed")
)
