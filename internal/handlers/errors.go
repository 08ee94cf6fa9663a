package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/tools/router"

	"travel-agency/internal/status"
)

// apiError maps service errors onto PocketBase api errors. Unknown errors are
// logged and hidden behind a generic 500.
func apiError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *router.ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verr *status.ValidationError
	if errors.As(err, &verr) {
		return apis.NewBadRequestError("Failed to validate the submitted data.", verr.Errors)
	}

	switch {
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("The requested resource wasn't found.", nil)
	case errors.Is(err, status.ErrInvalidCredentials):
		return apis.NewBadRequestError("Invalid email or password.", nil)
	case errors.Is(err, status.ErrUnauthorized), errors.Is(err, status.ErrSessionRevoked):
		return apis.NewUnauthorizedError("The request requires valid authorization.", nil)
	case errors.Is(err, status.ErrInactiveUser):
		return apis.NewForbiddenError("Your account is disabled.", nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("You are not allowed to perform this request.", nil)
	case errors.Is(err, status.ErrConflict):
		return router.NewApiError(http.StatusConflict, conflictMessage(err), nil)
	}

	slog.Error("Request failed", "error", err)
	return apis.NewInternalServerError("Something went wrong while processing your request.", nil)
}

// conflictMessage prefers the message of a known conflict over the wrapping text.
func conflictMessage(err error) string {
	for _, known := range []error{
		status.ErrSlugTaken,
		status.ErrEmailTaken,
		status.ErrAlreadySubscribed,
		status.ErrInvalidTransition,
		status.ErrEventFull,
		status.ErrLastAdmin,
		status.ErrSelfDelete,
		status.ErrInUse,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "The resource conflicts with an existing one."
}
