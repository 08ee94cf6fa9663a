package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// User is a staff account of the admin CMS.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
	Verified bool   `json:"verified"`
	Audit
}

func (u *User) GetID() string { return u.ID }

func (u *User) IsActiveAdmin() bool {
	return u.Active && u.Role == RoleAdmin
}

func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&u.Role, validation.Required, validation.In(RoleAdmin, RoleContentManager, RoleEditor)),
	)
}

// NewUser is the input of an admin creating a staff account.
type NewUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Password string `json:"password"`
}

func (n *NewUser) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.Email, validation.Required, is.EmailFormat),
		validation.Field(&n.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&n.Role, validation.Required, validation.In(RoleAdmin, RoleContentManager, RoleEditor)),
		validation.Field(&n.Password, validation.Required, validation.Length(10, 72)),
	)
}

// UserUpdate carries the optional fields of a user update. Nil means unchanged.
type UserUpdate struct {
	Name   *string `json:"name"`
	Role   *Role   `json:"role"`
	Active *bool   `json:"active"`
}

// TouchesPrivileges reports whether the update changes role or activation.
func (u UserUpdate) TouchesPrivileges() bool {
	return u.Role != nil || u.Active != nil
}

// Session is one login of a user.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TokenHash  string     `json:"-"`
	UserAgent  string     `json:"user_agent"`
	IP         string     `json:"ip"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	Current    bool       `json:"current"`
	Audit
}

// Active reports whether the session can still authenticate requests at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// NewsletterSubscriber is a visitor subscribed to the marketing newsletter.
type NewsletterSubscriber struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Token          string     `json:"-"`
	Subscribed     bool       `json:"subscribed"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
	Audit
}

func (n *NewsletterSubscriber) GetID() string { return n.ID }

func (n *NewsletterSubscriber) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.Email, validation.Required, is.EmailFormat, validation.Length(3, 254)),
		validation.Field(&n.Token, validation.Required),
	)
}

// NormalizeEmail trims and lower-cases an address before lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
