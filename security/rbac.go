// Package security holds the request guards of the API: rate limiting,
// role checks, cookie sessions and CSRF protection.
package security

import (
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/models"
)

// ActorFrom describes the authenticated caller of e. Requests without a valid
// auth record yield the anonymous actor.
func ActorFrom(e *core.RequestEvent) models.Actor {
	if e.Auth == nil {
		return models.Actor{}
	}
	if e.Auth.IsSuperuser() {
		return models.Actor{ID: e.Auth.Id, Email: e.Auth.Email(), Role: models.RoleAdmin, Active: true, Superuser: true}
	}
	return models.Actor{
		ID:     e.Auth.Id,
		Email:  e.Auth.Email(),
		Role:   models.Role(e.Auth.GetString("role")),
		Active: e.Auth.GetBool("active"),
	}
}

// RequireUser rejects anonymous and disabled callers.
func RequireUser() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor := ActorFrom(e)
		if actor.Anonymous() {
			return apis.NewUnauthorizedError("The request requires valid authorization.", nil)
		}
		if !actor.Active {
			return apis.NewForbiddenError("Your account is disabled.", nil)
		}
		return e.Next()
	}
}

// Require rejects callers whose role does not grant perm.
func Require(perm models.Permission) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor := ActorFrom(e)
		if actor.Anonymous() {
			return apis.NewUnauthorizedError("The request requires valid authorization.", nil)
		}
		if !actor.Can(perm) {
			return apis.NewForbiddenError("You are not allowed to perform this request.", nil)
		}
		return e.Next()
	}
}
