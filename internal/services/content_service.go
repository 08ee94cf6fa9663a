package services

import (
	"context"
	"errors"
	"fmt"

	"travel-agency/internal/clock"
	"travel-agency/internal/status"
	"travel-agency/models"
)

// ContentRepository is the storage a ContentService needs.
type ContentRepository[T models.Resource] interface {
	Get(ctx context.Context, id string) (T, error)
	FindBy(ctx context.Context, field string, value any) (T, error)
	List(ctx context.Context, q models.ListQuery) ([]T, int, error)
	Taken(ctx context.Context, field string, value any, excludeID string) (bool, error)
	Save(ctx context.Context, v T, actorID string) (T, error)
	Delete(ctx context.Context, id string) error
}

// ReferenceChecker reports whether some record points at a value.
type ReferenceChecker interface {
	Taken(ctx context.Context, field string, value any, excludeID string) (bool, error)
}

// ContentService implements the CMS rules shared by every content type.
type ContentService[T models.Resource] struct {
	name       string
	perm       models.Permission
	repo       ContentRepository[T]
	clock      clock.Clock
	categories ReferenceChecker
	inUse      []ReferenceChecker
	submit     func(T)
}

type ContentOption[T models.Resource] func(*ContentService[T])

// WithCategoryCheck makes create and update reject unknown category references.
func WithCategoryCheck[T models.Resource](categories ReferenceChecker) ContentOption[T] {
	return func(s *ContentService[T]) { s.categories = categories }
}

// WithDeleteGuard refuses deletes while any of refs still points at the record
// through a "category" field.
func WithDeleteGuard[T models.Resource](refs ...ReferenceChecker) ContentOption[T] {
	return func(s *ContentService[T]) { s.inUse = refs }
}

// WithPublicSubmit allows anonymous submissions. prepare runs before
// validation and resets the fields visitors may not set.
func WithPublicSubmit[T models.Resource](prepare func(T)) ContentOption[T] {
	return func(s *ContentService[T]) { s.submit = prepare }
}

func NewContentService[T models.Resource](name string, perm models.Permission, repo ContentRepository[T], clk clock.Clock, opts ...ContentOption[T]) *ContentService[T] {
	s := &ContentService[T]{
		name:  name,
		perm:  perm,
		repo:  repo,
		clock: clk,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of records. Hidden records are only listed for callers
// holding the permission of this content type.
func (s *ContentService[T]) List(ctx context.Context, actor models.Actor, q models.ListQuery) (models.Page[T], error) {
	q = q.Normalize()
	if q.IncludeHidden && !actor.Can(s.perm) {
		q.IncludeHidden = false
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return models.Page[T]{}, fmt.Errorf("list %s: %w", s.name, err)
	}
	return models.NewPage(items, q, total), nil
}

// Get finds a record by id, or by slug for sluggable types.
func (s *ContentService[T]) Get(ctx context.Context, actor models.Actor, idOrSlug string) (T, error) {
	var zero T

	v, err := s.repo.Get(ctx, idOrSlug)
	if errors.Is(err, status.ErrNotFound) && s.sluggable() {
		v, err = s.repo.FindBy(ctx, "slug", idOrSlug)
	}
	if err != nil {
		return zero, err
	}

	if p, ok := any(v).(models.Publishable); ok && !p.Visible() && !actor.Can(s.perm) {
		return zero, status.ErrNotFound
	}
	return v, nil
}

func (s *ContentService[T]) Create(ctx context.Context, actor models.Actor, v T) (T, error) {
	var zero T
	if !actor.Can(s.perm) {
		return zero, status.ErrForbidden
	}
	if err := newRecordOnly(v); err != nil {
		return zero, err
	}
	if err := s.check(ctx, v, ""); err != nil {
		return zero, err
	}
	return s.repo.Save(ctx, v, actor.AuditID())
}

// Submit stores an anonymous submission, for content types that accept them.
func (s *ContentService[T]) Submit(ctx context.Context, v T) (T, error) {
	var zero T
	if s.submit == nil {
		return zero, status.ErrForbidden
	}
	if err := newRecordOnly(v); err != nil {
		return zero, err
	}
	s.submit(v)
	if err := s.check(ctx, v, ""); err != nil {
		return zero, err
	}
	return s.repo.Save(ctx, v, "")
}

// Update replaces the stored record id with v.
func (s *ContentService[T]) Update(ctx context.Context, actor models.Actor, id string, v T) (T, error) {
	var zero T
	if !actor.Can(s.perm) {
		return zero, status.ErrForbidden
	}
	if v.GetID() != id {
		return zero, status.Invalid("id", "does not match the request path")
	}
	if err := s.check(ctx, v, id); err != nil {
		return zero, err
	}
	return s.repo.Save(ctx, v, actor.AuditID())
}

func (s *ContentService[T]) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Can(s.perm) {
		return status.ErrForbidden
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	for _, ref := range s.inUse {
		used, err := ref.Taken(ctx, "category", id, "")
		if err != nil {
			return fmt.Errorf("check %s references: %w", s.name, err)
		}
		if used {
			return status.ErrInUse
		}
	}
	return s.repo.Delete(ctx, id)
}

// newRecordOnly rejects a caller supplied id, which Save would treat as an update.
func newRecordOnly(v models.Resource) error {
	if v.GetID() != "" {
		return status.Invalid("id", "must be empty when creating a record")
	}
	return nil
}

// check prepares derived fields and enforces validation, slug uniqueness and
// category references. excludeID is the record being updated.
func (s *ContentService[T]) check(ctx context.Context, v T, excludeID string) error {
	if p, ok := any(v).(models.Preparer); ok {
		p.Prepare(s.clock.Now())
	}

	sl, sluggable := any(v).(models.Sluggable)
	if sluggable {
		slug := sl.GetSlug()
		if slug == "" {
			slug = sl.SlugSource()
		}
		sl.SetSlug(models.Slugify(slug))
	}

	if err := v.Validate(); err != nil {
		return status.Validation(err)
	}

	if sluggable {
		taken, err := s.repo.Taken(ctx, "slug", sl.GetSlug(), excludeID)
		if err != nil {
			return fmt.Errorf("check %s slug: %w", s.name, err)
		}
		if taken {
			return status.ErrSlugTaken
		}
	}

	if c, ok := any(v).(models.Categorized); ok && s.categories != nil && c.CategoryRef() != "" {
		exists, err := s.categories.Taken(ctx, "id", c.CategoryRef(), "")
		if err != nil {
			return fmt.Errorf("check %s category: %w", s.name, err)
		}
		if !exists {
			return status.Invalid("category_id", "category does not exist")
		}
	}
	return nil
}

func (s *ContentService[T]) sluggable() bool {
	var zero T
	_, ok := any(zero).(models.Sluggable)
	return ok
}
