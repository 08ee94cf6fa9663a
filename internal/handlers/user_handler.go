package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/models"
	"travel-agency/security"
)

type UserService interface {
	List(ctx context.Context, actor models.Actor, q models.ListQuery) (models.Page[*models.User], error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.User, error)
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
	Create(ctx context.Context, actor models.Actor, n *models.NewUser) (*models.User, error)
	Update(ctx context.Context, actor models.Actor, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) List(e *core.RequestEvent) error {
	page, err := h.svc.List(e.Request.Context(), security.ActorFrom(e), listQuery(e, "role"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, page)
}

func (h *UserHandler) Get(e *core.RequestEvent) error {
	user, err := h.svc.Get(e.Request.Context(), security.ActorFrom(e), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(e *core.RequestEvent) error {
	user, err := h.svc.Me(e.Request.Context(), security.ActorFrom(e))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, user)
}

func (h *UserHandler) Create(e *core.RequestEvent) error {
	var n models.NewUser
	if err := e.BindBody(&n); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	user, err := h.svc.Create(e.Request.Context(), security.ActorFrom(e), &n)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(e *core.RequestEvent) error {
	var upd models.UserUpdate
	if err := e.BindBody(&upd); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}

	user, err := h.svc.Update(e.Request.Context(), security.ActorFrom(e), e.Request.PathValue("id"), upd)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(e *core.RequestEvent) error {
	if err := h.svc.Delete(e.Request.Context(), security.ActorFrom(e), e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}
	return e.NoContent(http.StatusNoContent)
}
