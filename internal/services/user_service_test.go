package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-agency/internal/status"
	"travel-agency/models"
)

func staff() []*models.User {
	return []*models.User{
		{ID: "admin-1", Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin, Active: true},
		{ID: "manager-1", Email: "cm@example.com", Name: "Content Manager", Role: models.RoleContentManager, Active: true},
		{ID: "editor-1", Email: "editor@example.com", Name: "Editor", Role: models.RoleEditor, Active: true},
	}
}

func ptr[T any](v T) *T { return &v }

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("non admin cannot change another user's role", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(staff()...), &fakeRevoker{})

		_, err := svc.Update(ctx, manager, "editor-1", models.UserUpdate{Role: ptr(models.RoleAdmin)})
		assert.ErrorIs(t, err, status.ErrForbidden)
	})

	t.Run("non admin cannot change own role", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(staff()...), &fakeRevoker{})

		_, err := svc.Update(ctx, editor, "editor-1", models.UserUpdate{Role: ptr(models.RoleAdmin)})
		assert.ErrorIs(t, err, status.ErrForbidden)

		_, err = svc.Update(ctx, editor, "editor-1", models.UserUpdate{Active: ptr(false)})
		assert.ErrorIs(t, err, status.ErrForbidden)
	})

	t.Run("non admin can rename themselves", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(staff()...), &fakeRevoker{})

		u, err := svc.Update(ctx, editor, "editor-1", models.UserUpdate{Name: ptr("  Editor In Chief ")})
		require.NoError(t, err)
		assert.Equal(t, "Editor In Chief", u.Name)
		assert.Equal(t, models.RoleEditor, u.Role)
	})

	t.Run("admin promotes a user", func(t *testing.T) {
		repo := newFakeUserRepo(staff()...)
		svc := NewUserService(repo, &fakeRevoker{})

		u, err := svc.Update(ctx, admin, "editor-1", models.UserUpdate{Role: ptr(models.RoleContentManager)})
		require.NoError(t, err)
		assert.Equal(t, models.RoleContentManager, u.Role)
		assert.Equal(t, models.RoleContentManager, repo.users["editor-1"].Role)
	})

	t.Run("last admin cannot be demoted", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(staff()...), &fakeRevoker{})

		_, err := svc.Update(ctx, admin, "admin-1", models.UserUpdate{Role: ptr(models.RoleEditor)})
		assert.ErrorIs(t, err, status.ErrLastAdmin)

		_, err = svc.Update(ctx, admin, "admin-1", models.UserUpdate{Active: ptr(false)})
		assert.ErrorIs(t, err, status.ErrLastAdmin)
	})

	t.Run("admin can be demoted while another admin remains", func(t *testing.T) {
		users := append(staff(), &models.User{ID: "admin-3", Email: "other@example.com", Name: "Other", Role: models.RoleAdmin, Active: true})
		svc := NewUserService(newFakeUserRepo(users...), &fakeRevoker{})

		u, err := svc.Update(ctx, admin, "admin-1", models.UserUpdate{Role: ptr(models.RoleEditor)})
		require.NoError(t, err)
		assert.Equal(t, models.RoleEditor, u.Role)
	})

	t.Run("deactivation revokes sessions", func(t *testing.T) {
		revoker := &fakeRevoker{}
		svc := NewUserService(newFakeUserRepo(staff()...), revoker)

		u, err := svc.Update(ctx, admin, "editor-1", models.UserUpdate{Active: ptr(false)})
		require.NoError(t, err)
		assert.False(t, u.Active)
		assert.Equal(t, []string{"editor-1"}, revoker.revoked)
	})

	t.Run("unknown role is invalid", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(staff()...), &fakeRevoker{})

		_, err := svc.Update(ctx, admin, "editor-1", models.UserUpdate{Role: ptr(models.Role("OWNER"))})
		var verr *status.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserRepo(staff()...), &fakeRevoker{})

	u, err := svc.Create(ctx, admin, &models.NewUser{Email: " New@Example.com", Name: "New Hire", Role: models.RoleEditor, Password: "long-enough-pass"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)

	_, err = svc.Create(ctx, admin, &models.NewUser{Email: "editor@example.com", Name: "Copy", Role: models.RoleEditor, Password: "long-enough-pass"})
	assert.ErrorIs(t, err, status.ErrEmailTaken)

	_, err = svc.Create(ctx, manager, &models.NewUser{Email: "x@example.com", Name: "Nope", Role: models.RoleEditor, Password: "long-enough-pass"})
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = svc.Create(ctx, admin, &models.NewUser{Email: "short@example.com", Name: "Short", Role: models.RoleEditor, Password: "short"})
	var verr *status.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, "password")
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot delete self", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(staff()...), nil)
		assert.ErrorIs(t, svc.Delete(ctx, admin, "admin-1"), status.ErrSelfDelete)
	})

	t.Run("cannot delete the last admin", func(t *testing.T) {
		users := append(staff(), &models.User{ID: "admin-3", Email: "other@example.com", Name: "Other", Role: models.RoleAdmin, Active: false})
		svc := NewUserService(newFakeUserRepo(users...), nil)
		other := models.Actor{ID: "admin-3", Role: models.RoleAdmin, Active: true}

		assert.ErrorIs(t, svc.Delete(ctx, other, "admin-1"), status.ErrLastAdmin)
	})

	t.Run("admin deletes a user", func(t *testing.T) {
		repo := newFakeUserRepo(staff()...)
		svc := NewUserService(repo, nil)

		require.NoError(t, svc.Delete(ctx, admin, "editor-1"))
		assert.NotContains(t, repo.users, "editor-1")
	})
}

func TestUserService_Me(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(staff()...), nil)

	_, err := svc.Me(context.Background(), visitor)
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	u, err := svc.Me(context.Background(), editor)
	require.NoError(t, err)
	assert.Equal(t, "editor@example.com", u.Email)

	root, err := svc.Me(context.Background(), models.Actor{ID: "su", Email: "root@example.com", Superuser: true, Active: true})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, root.Role)
}
