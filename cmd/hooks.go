package cmd

import (
	"log/slog"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/internal/schema"
	"travel-agency/internal/services"
)

func registerHooks(app *pocketbase.PocketBase, svc *container) {
	// Tokens issued by the built-in auth endpoints (password, OTP, OAuth2 and
	// refresh) must be in the session registry too, or SessionGuard drops them.
	app.OnRecordAuthRequest(schema.Users).BindFunc(func(e *core.RecordAuthRequestEvent) error {
		if !e.Record.GetBool("active") {
			return e.ForbiddenError("Your account is disabled.", nil)
		}

		_, err := svc.sessions.Register(e.Request.Context(), e.Record.Id, e.Token, services.ClientInfo{
			UserAgent: e.Request.UserAgent(),
			IP:        e.RealIP(),
		})
		if err != nil {
			slog.Error("Failed to register session", "user", e.Record.Id, "error", err)
			return e.InternalServerError("Failed to create the session.", nil)
		}
		return e.Next()
	})

	// Changing a password rotates the token key; the sessions go with it.
	app.OnRecordAfterUpdateSuccess(schema.Users).BindFunc(func(e *core.RecordEvent) error {
		if e.Record.Original().GetString("tokenKey") != e.Record.GetString("tokenKey") {
			if err := svc.sessions.ExpireUser(e.Context, e.Record.Id); err != nil {
				slog.Error("Failed to revoke sessions after token key change", "user", e.Record.Id, "error", err)
			}
		}
		return e.Next()
	})
}
