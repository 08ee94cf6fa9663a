package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"travel-agency/internal/status"
	"travel-agency/models"
)

var (
	testNow  = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	admin    = models.Actor{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin, Active: true}
	manager  = models.Actor{ID: "manager-1", Email: "cm@example.com", Role: models.RoleContentManager, Active: true}
	editor   = models.Actor{ID: "editor-1", Email: "editor@example.com", Role: models.RoleEditor, Active: true}
	visitor  = models.Actor{}
	disabled = models.Actor{ID: "admin-2", Role: models.RoleAdmin, Active: false}
	root     = models.Actor{ID: "su-1", Email: "root@example.com", Role: models.RoleAdmin, Active: true, Superuser: true}
)

// fakeContentRepo keeps records in memory. field resolves a column of a record
// for FindBy and Taken.
type fakeContentRepo[T models.Resource] struct {
	mu      sync.Mutex
	items   map[string]T
	field   func(v T, name string) any
	setID   func(v T, id string)
	seq     int
	saves   int
	savedBy []string
	deleted []string
	listed  []models.ListQuery
}

func newFakeContentRepo[T models.Resource](field func(T, string) any, setID func(T, string), items ...T) *fakeContentRepo[T] {
	r := &fakeContentRepo[T]{items: map[string]T{}, field: field, setID: setID}
	for _, item := range items {
		r.items[item.GetID()] = item
	}
	return r
}

func (r *fakeContentRepo[T]) Get(_ context.Context, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		var zero T
		return zero, status.ErrNotFound
	}
	return v, nil
}

func (r *fakeContentRepo[T]) FindBy(_ context.Context, field string, value any) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if r.field(v, field) == value {
			return v, nil
		}
	}
	var zero T
	return zero, status.ErrNotFound
}

func (r *fakeContentRepo[T]) List(_ context.Context, q models.ListQuery) ([]T, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listed = append(r.listed, q)
	var out []T
	for _, v := range r.items {
		if p, ok := any(v).(models.Publishable); ok && !q.IncludeHidden && !p.Visible() {
			continue
		}
		out = append(out, v)
	}
	return out, len(out), nil
}

func (r *fakeContentRepo[T]) Taken(_ context.Context, field string, value any, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.items {
		if id != excludeID && r.field(v, field) == value {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeContentRepo[T]) Save(_ context.Context, v T, actorID string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.savedBy = append(r.savedBy, actorID)
	if v.GetID() == "" {
		r.seq++
		r.setID(v, fmt.Sprintf("rec-%d", r.seq))
	}
	r.items[v.GetID()] = v
	return v, nil
}

func (r *fakeContentRepo[T]) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return status.ErrNotFound
	}
	delete(r.items, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func categoryField(c *models.Category, name string) any {
	switch name {
	case "id":
		return c.ID
	case "slug":
		return c.Slug
	}
	return nil
}

func tourField(t *models.Tour, name string) any {
	switch name {
	case "id":
		return t.ID
	case "slug":
		return t.Slug
	case "category":
		return t.CategoryID
	}
	return nil
}

func subscriberField(n *models.NewsletterSubscriber, name string) any {
	switch name {
	case "id":
		return n.ID
	case "email":
		return n.Email
	case "token":
		return n.Token
	}
	return nil
}

type getterMap[T any] map[string]T

func (g getterMap[T]) Get(_ context.Context, id string) (T, error) {
	v, ok := g[id]
	if !ok {
		var zero T
		return zero, status.ErrNotFound
	}
	return v, nil
}

type fakeBookingRepo struct {
	mu         sync.Mutex
	bookings   map[string]*models.Booking
	details    map[string]models.BookingDetails
	references map[string]bool
	reserved   map[string]int
	counts     map[models.BookingKind]map[models.Status]int
	seq        int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:   map[string]*models.Booking{},
		details:    map[string]models.BookingDetails{},
		references: map[string]bool{},
		reserved:   map[string]int{},
		counts:     map[models.BookingKind]map[models.Status]int{},
	}
}

func (r *fakeBookingRepo) Create(_ context.Context, ks models.KindSpec, b *models.Booking, details models.BookingDetails) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	saved := *b
	saved.ID = fmt.Sprintf("bk-%d", r.seq)
	saved.Kind = ks.Kind
	saved.Details = details.Columns()
	r.bookings[saved.ID] = &saved
	r.details[saved.ID] = details
	r.references[saved.Reference] = true
	return &saved, nil
}

func (r *fakeBookingRepo) Get(_ context.Context, _ models.KindSpec, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) List(_ context.Context, _ models.KindSpec, _ models.ListQuery) ([]*models.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.bookings {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, _ models.KindSpec, id string, to models.Status, notes *string, actorID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	b.Status = to
	if notes != nil {
		b.AdminNotes = *notes
	}
	b.UpdatedBy = actorID
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, _ models.KindSpec, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return status.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) ReferenceExists(_ context.Context, _ models.KindSpec, reference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.references[reference], nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context, ks models.KindSpec) (map[models.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.Status]int{}
	for _, st := range models.Statuses() {
		out[st] = r.counts[ks.Kind][st]
	}
	return out, nil
}

func (r *fakeBookingRepo) ReservedSeats(_ context.Context, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reserved[eventID], nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	received []string
	changed  []string
	welcomed []string
}

func (n *fakeNotifier) BookingReceived(_ models.KindSpec, b *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, b.Reference)
}

func (n *fakeNotifier) BookingStatusChanged(_ models.KindSpec, b *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, string(b.Status))
}

func (n *fakeNotifier) NewsletterWelcome(sub *models.NewsletterSubscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomed = append(n.welcomed, sub.Email)
}

type fakePublisher struct {
	events []string
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event string, _ any) error {
	p.events = append(p.events, event)
	return p.err
}

type fakeUserRepo struct {
	users map[string]*models.User
	seq   int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Get(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, status.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _ models.ListQuery) ([]*models.User, int, error) {
	var out []*models.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) Create(_ context.Context, n *models.NewUser) (*models.User, error) {
	r.seq++
	u := &models.User{ID: fmt.Sprintf("user-%d", r.seq), Email: n.Email, Name: n.Name, Role: n.Role, Active: true}
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *models.User, actorID string) (*models.User, error) {
	u.UpdatedBy = actorID
	cp := *u
	r.users[u.ID] = &cp
	return u, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return status.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) CountActiveAdmins(_ context.Context) (int, error) {
	n := 0
	for _, u := range r.users {
		if u.IsActiveAdmin() {
			n++
		}
	}
	return n, nil
}

type fakeRevoker struct {
	revoked []string
}

func (f *fakeRevoker) RevokeAll(_ context.Context, _ models.Actor, userID string) (int, error) {
	f.revoked = append(f.revoked, userID)
	return 1, nil
}

type fakeSessionRepo struct {
	sessions map[string]*models.Session
	touched  []string
	seq      int
}

func newFakeSessionRepo(sessions ...*models.Session) *fakeSessionRepo {
	r := &fakeSessionRepo{sessions: map[string]*models.Session{}}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.Session) (*models.Session, error) {
	r.seq++
	cp := *s
	cp.ID = fmt.Sprintf("sess-%d", r.seq)
	r.sessions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeSessionRepo) Get(_ context.Context, id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) FindByHash(_ context.Context, hash string) (*models.Session, error) {
	for _, s := range r.sessions {
		if s.TokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, status.ErrNotFound
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string, now time.Time) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Active(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, id string, at time.Time) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	if s.RevokedAt == nil {
		s.RevokedAt = &at
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) RevokeAll(_ context.Context, userID string, at time.Time) ([]string, error) {
	var hashes []string
	for _, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &at
			hashes = append(hashes, s.TokenHash)
		}
	}
	return hashes, nil
}

func (r *fakeSessionRepo) Touch(_ context.Context, id string, at time.Time) error {
	r.touched = append(r.touched, id)
	if s, ok := r.sessions[id]; ok {
		s.LastSeenAt = &at
	}
	return nil
}

type fakeAuth struct {
	users   map[string]*models.User
	rotated []string
}

func (f *fakeAuth) Authenticate(_ context.Context, email, password string) (*models.User, string, error) {
	u, ok := f.users[email]
	if !ok || password != "correct-horse" {
		return nil, "", status.ErrInvalidCredentials
	}
	if !u.Active {
		return u, "", status.ErrInactiveUser
	}
	return u, "token-" + u.ID, nil
}

func (f *fakeAuth) RotateTokenKey(_ context.Context, userID string) error {
	f.rotated = append(f.rotated, userID)
	return nil
}
