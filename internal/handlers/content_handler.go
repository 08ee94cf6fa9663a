package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/models"
	"travel-agency/security"
)

type ContentService[T models.Resource] interface {
	List(ctx context.Context, actor models.Actor, q models.ListQuery) (models.Page[T], error)
	Get(ctx context.Context, actor models.Actor, idOrSlug string) (T, error)
	Create(ctx context.Context, actor models.Actor, v T) (T, error)
	Submit(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, actor models.Actor, id string, v T) (T, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// ContentHandler exposes one CMS content type over REST.
type ContentHandler[T models.Resource] struct {
	svc     ContentService[T]
	newT    func() T
	filters []string
}

// NewContentHandler builds the handler. filters lists the query parameters
// accepted as exact match filters on listings.
func NewContentHandler[T models.Resource](svc ContentService[T], newT func() T, filters ...string) *ContentHandler[T] {
	return &ContentHandler[T]{svc: svc, newT: newT, filters: filters}
}

func (h *ContentHandler[T]) List(e *core.RequestEvent) error {
	page, err := h.svc.List(e.Request.Context(), security.ActorFrom(e), listQuery(e, h.filters...))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, page)
}

func (h *ContentHandler[T]) Get(e *core.RequestEvent) error {
	v, err := h.svc.Get(e.Request.Context(), security.ActorFrom(e), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, v)
}

func (h *ContentHandler[T]) Create(e *core.RequestEvent) error {
	v := h.newT()
	if err := e.BindBody(v); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	created, err := h.svc.Create(e.Request.Context(), security.ActorFrom(e), v)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, created)
}

// Submit accepts anonymous submissions for content types that allow them.
func (h *ContentHandler[T]) Submit(e *core.RequestEvent) error {
	v := h.newT()
	if err := e.BindBody(v); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	created, err := h.svc.Submit(e.Request.Context(), v)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, created)
}

// Update binds the body over the stored record, so omitted fields keep their value.
func (h *ContentHandler[T]) Update(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	actor := security.ActorFrom(e)
	id := e.Request.PathValue("id")

	current, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		return apiError(err)
	}
	if current.GetID() != id {
		// addressed by slug
		id = current.GetID()
	}
	if err := e.BindBody(current); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	updated, err := h.svc.Update(ctx, actor, id, current)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, updated)
}

func (h *ContentHandler[T]) Delete(e *core.RequestEvent) error {
	if err := h.svc.Delete(e.Request.Context(), security.ActorFrom(e), e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}
	return e.NoContent(http.StatusNoContent)
}
