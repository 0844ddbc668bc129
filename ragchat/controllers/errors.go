package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"ragchat/ragchat/utils/logging"
)

// ClientError is a rejected request; nothing was mutated.
type ClientError struct {
	Status  int
	Message string
}

func (e *ClientError) Error() string { return e.Message }

var (
	ErrNoFilePart      = &ClientError{Status: http.StatusBadRequest, Message: "No file part"}
	ErrEmptyFilename   = &ClientError{Status: http.StatusBadRequest, Message: "No selected file"}
	ErrUnsupportedType = &ClientError{Status: http.StatusUnsupportedMediaType, Message: "Unsupported file type; only plain text and CSV are accepted"}
	ErrTooLarge        = &ClientError{Status: http.StatusRequestEntityTooLarge, Message: "File exceeds the 1 MiB limit"}
	ErrMissingMessage  = &ClientError{Status: http.StatusBadRequest, Message: "Missing message field"}
)

// ErrUpstream marks failures of the model, storage or session backends.
var ErrUpstream = errors.New("upstream failure")

func upstreamError(sessionID, op string, err error) error {
	logging.ErrorLogger.Error(op+" failed", zap.String("session_id", sessionID), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
