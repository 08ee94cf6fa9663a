package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/internal/services"
	"travel-agency/models"
	"travel-agency/security"
	"travel-agency/utils"
)

type SessionService interface {
	Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	List(ctx context.Context, actor models.Actor, userID, currentID string) ([]*models.Session, error)
	Revoke(ctx context.Context, actor models.Actor, id string) error
	RevokeAll(ctx context.Context, actor models.Actor, userID string) (int, error)
}

type AuthHandler struct {
	sessions     SessionService
	cookieTTL    time.Duration
	cookieSecure bool
	clientIP     func(e *core.RequestEvent) string
}

func NewAuthHandler(sessions SessionService, cookieTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		cookieTTL:    cookieTTL,
		cookieSecure: cookieSecure,
		clientIP:     (*core.RequestEvent).RealIP,
	}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(e *core.RequestEvent) error {
	var body loginBody
	if err := e.BindBody(&body); err != nil {
		return apis.NewBadRequestError("Failed to read the request data.", err)
	}
	if body.Email == "" || body.Password == "" {
		return apis.NewBadRequestError("Invalid email or password.", nil)
	}

	res, err := h.sessions.Login(e.Request.Context(), body.Email, body.Password, services.ClientInfo{
		UserAgent: e.Request.UserAgent(),
		IP:        h.clientIP(e),
	})
	if err != nil {
		return apiError(err)
	}

	csrf, err := utils.GenerateToken(16)
	if err != nil {
		return apiError(err)
	}
	security.SetAuthCookies(e, res.Token, csrf, h.cookieTTL, h.cookieSecure)

	return e.JSON(http.StatusOK, map[string]any{
		"token":      res.Token,
		"csrf_token": csrf,
		"user":       res.User,
		"session":    res.Session,
	})
}

// Logout revokes the session of the presented token. It always clears the cookies.
func (h *AuthHandler) Logout(e *core.RequestEvent) error {
	if token := security.Token(e); token != "" {
		if err := h.sessions.Logout(e.Request.Context(), token); err != nil {
			return apiError(err)
		}
	}
	security.ClearAuthCookies(e, h.cookieSecure)
	return e.NoContent(http.StatusNoContent)
}

// Sessions lists the live sessions of the caller, or of ?user= for admins.
func (h *AuthHandler) Sessions(e *core.RequestEvent) error {
	actor := security.ActorFrom(e)
	userID := e.Request.URL.Query().Get("user")
	if userID == "" {
		userID = actor.ID
	}

	currentID := ""
	if s := security.SessionFrom(e); s != nil {
		currentID = s.ID
	}

	sessions, err := h.sessions.List(e.Request.Context(), actor, userID, currentID)
	if err != nil {
		return apiError(err)
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	return e.JSON(http.StatusOK, sessions)
}

func (h *AuthHandler) RevokeSession(e *core.RequestEvent) error {
	id := e.Request.PathValue("id")
	if err := h.sessions.Revoke(e.Request.Context(), security.ActorFrom(e), id); err != nil {
		return apiError(err)
	}
	if s := security.SessionFrom(e); s != nil && s.ID == id {
		security.ClearAuthCookies(e, h.cookieSecure)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) RevokeAll(e *core.RequestEvent) error {
	actor := security.ActorFrom(e)
	userID := e.Request.PathValue("id")

	n, err := h.sessions.RevokeAll(e.Request.Context(), actor, userID)
	if err != nil {
		return apiError(err)
	}
	if userID == actor.ID {
		security.ClearAuthCookies(e, h.cookieSecure)
	}
	return e.JSON(http.StatusOK, map[string]int{"revoked": n})
}
