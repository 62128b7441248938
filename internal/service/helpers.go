package service

import (
	"context"
	"errors"

	"ticketdesk/internal/auth"
	apperrors "ticketdesk/internal/errors"
)

// callerID returns the authenticated user id from ctx, or nil.
func callerID(ctx context.Context) *string {
	if id, ok := auth.UserIDFromContext(ctx); ok {
		return &id
	}
	return nil
}

func userRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// storageError maps an unexpected store failure to a caller-safe error.
// Deadline expiry surfaces as a timeout instead of an internal error.
func storageError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("The request timed out.", err)
	}
	return apperrors.NewInternalError(message, err)
}
