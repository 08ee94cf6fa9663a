package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"travel-agency/internal/status"
	"travel-agency/models"
)

type UserRepository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q models.ListQuery) ([]*models.User, int, error)
	Create(ctx context.Context, n *models.NewUser) (*models.User, error)
	Save(ctx context.Context, u *models.User, actorID string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	CountActiveAdmins(ctx context.Context) (int, error)
}

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, actor models.Actor, userID string) (int, error)
}

// UserService applies the staff account rules of the CMS.
type UserService struct {
	repo     UserRepository
	sessions SessionRevoker
}

func NewUserService(repo UserRepository, sessions SessionRevoker) *UserService {
	return &UserService{repo: repo, sessions: sessions}
}

func (s *UserService) List(ctx context.Context, actor models.Actor, q models.ListQuery) (models.Page[*models.User], error) {
	if !actor.Can(models.PermManageUsers) {
		return models.Page[*models.User]{}, status.ErrForbidden
	}
	q = q.Normalize()
	if role, ok := q.Filters["role"]; ok && !models.Role(fmt.Sprint(role)).Valid() {
		return models.Page[*models.User]{}, status.Invalid("role", "unknown role")
	}

	users, total, err := s.repo.List(ctx, q)
	if err != nil {
		return models.Page[*models.User]{}, fmt.Errorf("list users: %w", err)
	}
	return models.NewPage(users, q, total), nil
}

// Get returns a user. Staff may read their own account, admins any account.
func (s *UserService) Get(ctx context.Context, actor models.Actor, id string) (*models.User, error) {
	if actor.Anonymous() {
		return nil, status.ErrUnauthorized
	}
	if actor.ID != id && !actor.Can(models.PermManageUsers) {
		return nil, status.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

func (s *UserService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	if actor.Anonymous() {
		return nil, status.ErrUnauthorized
	}
	if actor.Superuser {
		return &models.User{ID: actor.ID, Email: actor.Email, Name: "Superuser", Role: models.RoleAdmin, Active: true, Verified: true}, nil
	}
	return s.repo.Get(ctx, actor.ID)
}

func (s *UserService) Create(ctx context.Context, actor models.Actor, n *models.NewUser) (*models.User, error) {
	if !actor.Can(models.PermManageUsers) {
		return nil, status.ErrForbidden
	}

	n.Email = models.NormalizeEmail(n.Email)
	n.Name = strings.TrimSpace(n.Name)
	if err := n.Validate(); err != nil {
		return nil, status.Validation(err)
	}

	_, err := s.repo.FindByEmail(ctx, n.Email)
	if err == nil {
		return nil, status.ErrEmailTaken
	}
	if !errors.Is(err, status.ErrNotFound) {
		return nil, err
	}

	user, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	slog.Info("User created", "id", user.ID, "role", user.Role, "by", actor.ID)
	return user, nil
}

// Update changes name, role or activation. Only admins may touch role and
// activation, and the last active admin cannot lose either.
func (s *UserService) Update(ctx context.Context, actor models.Actor, id string, upd models.UserUpdate) (*models.User, error) {
	if actor.Anonymous() {
		return nil, status.ErrUnauthorized
	}
	isAdmin := actor.Can(models.PermManageUsers)
	if actor.ID != id && !isAdmin {
		return nil, status.ErrForbidden
	}
	if upd.TouchesPrivileges() && !isAdmin {
		return nil, status.ErrForbidden
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActiveAdmin := user.IsActiveAdmin()

	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.Active != nil {
		user.Active = *upd.Active
	}
	if err := user.Validate(); err != nil {
		return nil, status.Validation(err)
	}

	if wasActiveAdmin && !user.IsActiveAdmin() {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	saved, err := s.repo.Save(ctx, user, actor.AuditID())
	if err != nil {
		return nil, err
	}

	if upd.Active != nil && !*upd.Active && s.sessions != nil {
		if _, err := s.sessions.RevokeAll(ctx, actor, id); err != nil {
			slog.Error("Failed to revoke sessions of deactivated user", "user", id, "error", err)
		}
	}
	return saved, nil
}

func (s *UserService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Can(models.PermManageUsers) {
		return status.ErrForbidden
	}
	if actor.ID == id {
		return status.ErrSelfDelete
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.IsActiveAdmin() {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("User deleted", "id", id, "by", actor.ID)
	return nil
}

// ensureOtherAdmin fails when the account about to lose admin rights is the last one.
func (s *UserService) ensureOtherAdmin(ctx context.Context) error {
	admins, err := s.repo.CountActiveAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return status.ErrLastAdmin
	}
	return nil
}
