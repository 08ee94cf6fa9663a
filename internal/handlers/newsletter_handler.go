package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/models"
	"travel-agency/security"
)

type NewsletterService interface {
	Subscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	Unsubscribe(ctx context.Context, token string) error
	List(ctx context.Context, actor models.Actor, q models.ListQuery) (models.Page[*models.NewsletterSubscriber], error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type NewsletterHandler struct {
	svc NewsletterService
}

func NewNewsletterHandler(svc NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{svc: svc}
}

func (h *NewsletterHandler) Subscribe(e *core.RequestEvent) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	sub, err := h.svc.Subscribe(e.Request.Context(), body.Email)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, map[string]any{
		"email":      sub.Email,
		"subscribed": sub.Subscribed,
	})
}

// Unsubscribe is reached from the link in newsletter emails, so it accepts GET.
func (h *NewsletterHandler) Unsubscribe(e *core.RequestEvent) error {
	if err := h.svc.Unsubscribe(e.Request.Context(), e.Request.URL.Query().Get("token")); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"subscribed": false})
}

func (h *NewsletterHandler) List(e *core.RequestEvent) error {
	page, err := h.svc.List(e.Request.Context(), security.ActorFrom(e), listQuery(e))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, page)
}

func (h *NewsletterHandler) Delete(e *core.RequestEvent) error {
	if err := h.svc.Delete(e.Request.Context(), security.ActorFrom(e), e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}
	return e.NoContent(http.StatusNoContent)
}
