package security

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"

	"travel-agency/internal/status"
	"travel-agency/models"
	"travel-agency/monitoring"
)

const (
	AuthCookie = "auth_token"
	CSRFCookie = "csrf_token"
	CSRFHeader = "X-CSRF-Token"

	cookieAuthKey = "travelCookieAuth"
	sessionKey    = "travelSession"
)

// SessionVerifier resolves the registry session of an auth token.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*models.Session, error)
}

// CookieAuth copies the auth cookie into the Authorization header so that the
// PocketBase token loader picks it up. It runs right before that loader.
func CookieAuth() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id:       "travelCookieAuth",
		Priority: apis.DefaultLoadAuthTokenMiddlewarePriority - 1,
		Func: func(e *core.RequestEvent) error {
			if e.Request.Header.Get("Authorization") != "" {
				return e.Next()
			}
			cookie, err := e.Request.Cookie(AuthCookie)
			if err != nil || cookie.Value == "" {
				return e.Next()
			}
			e.Request.Header.Set("Authorization", cookie.Value)
			e.Set(cookieAuthKey, true)
			return e.Next()
		},
	}
}

// SessionGuard drops the auth state of requests whose token is not backed by
// a live session. Superuser tokens are not tracked.
func SessionGuard(verifier SessionVerifier) *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id:       "travelSessionGuard",
		Priority: apis.DefaultLoadAuthTokenMiddlewarePriority + 1,
		Func: func(e *core.RequestEvent) error {
			if e.Auth == nil || e.Auth.IsSuperuser() {
				return e.Next()
			}

			session, err := verifier.Verify(e.Request.Context(), Token(e))
			if err != nil {
				if errors.Is(err, status.ErrSessionRevoked) {
					monitoring.TrackSession("rejected")
				} else {
					slog.Error("Session verification failed", "user", e.Auth.Id, "error", err)
				}
				e.Auth = nil
				return e.Next()
			}
			if session.UserID != e.Auth.Id {
				e.Auth = nil
				return e.Next()
			}

			e.Set(sessionKey, session)
			return e.Next()
		},
	}
}

// CSRF enforces the double submit check on mutating requests authenticated by
// the auth cookie. Header authenticated API clients and stale cookies are not
// affected.
func CSRF(enabled bool) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if !enabled || !mutating(e.Request.Method) || !CookieAuthenticated(e) || e.Auth == nil {
			return e.Next()
		}

		cookie, err := e.Request.Cookie(CSRFCookie)
		header := e.Request.Header.Get(CSRFHeader)
		if err != nil || cookie.Value == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			return apis.NewForbiddenError("Missing or invalid CSRF token.", nil)
		}
		return e.Next()
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Token returns the raw auth token of the request.
func Token(e *core.RequestEvent) string {
	token := e.Request.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

func CookieAuthenticated(e *core.RequestEvent) bool {
	v, _ := e.Get(cookieAuthKey).(bool)
	return v
}

// SessionFrom returns the session attached by SessionGuard, if any.
func SessionFrom(e *core.RequestEvent) *models.Session {
	s, _ := e.Get(sessionKey).(*models.Session)
	return s
}

// SetAuthCookies stores the auth token in an HttpOnly cookie next to a
// readable CSRF cookie.
func SetAuthCookies(e *core.RequestEvent, token, csrf string, ttl time.Duration, secure bool) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:     AuthCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(e.Response, &http.Cookie{
		Name:     CSRFCookie,
		Value:    csrf,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearAuthCookies(e *core.RequestEvent, secure bool) {
	for _, name := range []string{AuthCookie, CSRFCookie} {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == AuthCookie,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
