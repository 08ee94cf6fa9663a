package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/internal/services"
	"travel-agency/models"
	"travel-agency/security"
)

type BookingService interface {
	Submit(ctx context.Context, req *models.BookingRequest) (*models.Booking, error)
	List(ctx context.Context, actor models.Actor, kind models.BookingKind, q models.ListQuery) (models.Page[*models.Booking], error)
	Get(ctx context.Context, actor models.Actor, kind models.BookingKind, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, actor models.Actor, kind models.BookingKind, id string, upd models.StatusUpdate) (*models.Booking, error)
	Delete(ctx context.Context, actor models.Actor, kind models.BookingKind, id string) error
	Dashboard(ctx context.Context, actor models.Actor) (*services.Dashboard, error)
}

type BookingHandler struct {
	svc BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type bookingBody struct {
	FullName string          `json:"full_name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Message  string          `json:"message"`
	Details  json.RawMessage `json:"details"`
}

// Submit receives a public booking form of the kind named in the path.
func (h *BookingHandler) Submit(e *core.RequestEvent) error {
	ks, ok := models.LookupKind(e.Request.PathValue("kind"))
	if !ok {
		return apis.NewNotFoundError("Unknown booking type.", nil)
	}

	var body bookingBody
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	req := &models.BookingRequest{
		Kind:     ks.Kind,
		FullName: body.FullName,
		Email:    body.Email,
		Phone:    body.Phone,
		Message:  body.Message,
	}
	if len(body.Details) > 0 && string(body.Details) != "null" {
		details := ks.NewDetails()
		if err := json.Unmarshal(body.Details, details); err != nil {
			return apis.NewBadRequestError("Failed to read the request data.", validation.Errors{
				"details": validation.NewError("validation_invalid_format", "invalid booking details"),
			})
		}
		req.Details = details
	}

	booking, err := h.svc.Submit(e.Request.Context(), req)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, map[string]any{
		"id":        booking.ID,
		"reference": booking.Reference,
		"status":    booking.Status,
		"total":     booking.Total,
	})
}

func (h *BookingHandler) List(e *core.RequestEvent) error {
	kind := models.BookingKind(e.Request.PathValue("kind"))
	page, err := h.svc.List(e.Request.Context(), security.ActorFrom(e), kind, listQuery(e, "status"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, page)
}

func (h *BookingHandler) Get(e *core.RequestEvent) error {
	kind := models.BookingKind(e.Request.PathValue("kind"))
	booking, err := h.svc.Get(e.Request.Context(), security.ActorFrom(e), kind, e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) UpdateStatus(e *core.RequestEvent) error {
	var upd models.StatusUpdate
	if err := e.BindBody(&upd); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	kind := models.BookingKind(e.Request.PathValue("kind"))
	booking, err := h.svc.UpdateStatus(e.Request.Context(), security.ActorFrom(e), kind, e.Request.PathValue("id"), upd)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) Delete(e *core.RequestEvent) error {
	kind := models.BookingKind(e.Request.PathValue("kind"))
	if err := h.svc.Delete(e.Request.Context(), security.ActorFrom(e), kind, e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) Dashboard(e *core.RequestEvent) error {
	d, err := h.svc.Dashboard(e.Request.Context(), security.ActorFrom(e))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, d)
}
