package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/internal/schema"
	"travel-agency/internal/status"
	"travel-agency/models"
)

// UserStore manages staff accounts on top of the PocketBase users collection.
type UserStore struct {
	*RecordStore[*models.User]
}

func NewUserStore(app core.App) *UserStore {
	return &UserStore{RecordStore: NewRecordStore(app, UserCodec())}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.FindOne(ctx, dbx.HashExp{"email": models.NormalizeEmail(email)})
}

func (s *UserStore) Create(ctx context.Context, n *models.NewUser) (*models.User, error) {
	collection, err := s.app.FindCachedCollectionByNameOrId(schema.Users)
	if err != nil {
		return nil, fmt.Errorf("find collection users: %w", err)
	}

	record := core.NewRecord(collection)
	record.SetEmail(models.NormalizeEmail(n.Email))
	record.SetPassword(n.Password)
	record.SetVerified(true)
	record.Set("name", n.Name)
	record.Set("role", string(n.Role))
	record.Set("active", true)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		err = saveError(schema.Users, err)
		if errors.Is(err, status.ErrConflict) {
			return nil, status.ErrEmailTaken
		}
		return nil, err
	}
	return s.codec.Decode(record), nil
}

// CountActiveAdmins returns how many active ADMIN accounts exist.
func (s *UserStore) CountActiveAdmins(ctx context.Context) (int, error) {
	return s.Count(ctx, dbx.HashExp{"role": string(models.RoleAdmin), "active": true})
}

// Authenticate checks a password login and returns the user with a fresh auth token.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	record, err := s.app.FindAuthRecordByEmail(schema.Users, models.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", status.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user by email: %w", err)
	}
	if !record.ValidatePassword(password) {
		return nil, "", status.ErrInvalidCredentials
	}

	user := s.codec.Decode(record)
	if !user.Active {
		return user, "", status.ErrInactiveUser
	}

	token, err := record.NewAuthToken()
	if err != nil {
		return nil, "", fmt.Errorf("issue auth token: %w", err)
	}
	return user, token, nil
}

// RotateTokenKey invalidates every token issued for the user so far.
func (s *UserStore) RotateTokenKey(ctx context.Context, id string) error {
	record, err := findRecord(ctx, s.app, schema.Users, dbx.HashExp{"id": id})
	if err != nil {
		return err
	}
	record.RefreshTokenKey()
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return saveError(schema.Users, err)
	}
	return nil
}
