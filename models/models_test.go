package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoleCan(t *testing.T) {
	tests := []struct {
		role     Role
		perm     Permission
		expected bool
	}{
		{RoleAdmin, PermManageUsers, true},
		{RoleAdmin, PermManageBookings, true},
		{RoleContentManager, PermManageContent, true},
		{RoleContentManager, PermManageBookings, true},
		{RoleContentManager, PermManageUsers, false},
		{RoleEditor, PermManageBlog, true},
		{RoleEditor, PermManageGallery, true},
		{RoleEditor, PermManageContent, false},
		{RoleEditor, PermManageBookings, false},
		{Role(""), PermManageBlog, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.expected, RoleCan(tt.role, tt.perm))
		})
	}
}

func TestActorCan(t *testing.T) {
	assert.False(t, Actor{}.Can(PermManageBlog), "anonymous")
	assert.False(t, Actor{ID: "u1", Role: RoleAdmin}.Can(PermManageUsers), "inactive")
	assert.True(t, Actor{ID: "u1", Role: RoleAdmin, Active: true}.Can(PermManageUsers))
	assert.True(t, Actor{ID: "su", Superuser: true, Active: true}.Can(PermManageUsers))
	assert.True(t, Actor{ID: "su", Superuser: true}.IsAdmin())
}

func TestActorAuditID(t *testing.T) {
	assert.Equal(t, "u1", Actor{ID: "u1", Role: RoleEditor, Active: true}.AuditID())
	assert.Empty(t, Actor{ID: "su", Superuser: true, Active: true}.AuditID())
	assert.Empty(t, Actor{}.AuditID())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		expected bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusArchived, true},
		{StatusPending, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusPending, true},
		{StatusCompleted, StatusArchived, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusArchived, StatusPending, true},
		{StatusArchived, StatusCompleted, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusPending, Status("CANCELLED"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, CanTransition(tt.from, tt.to))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"Bali Island Escape", "bali-island-escape"},
		{"  Hello,   World!  ", "hello-world"},
		{"10 Days -- in Nepal", "10-days-in-nepal"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slugify(tt.in))
	}
}

func TestListQueryNormalize(t *testing.T) {
	q := ListQuery{Page: 0, PerPage: 500}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPerPage, q.PerPage)
	assert.Equal(t, 0, q.Offset())

	q = ListQuery{Page: 3}.Normalize()
	assert.Equal(t, DefaultPerPage, q.PerPage)
	assert.Equal(t, 40, q.Offset())
}

func TestNewPage(t *testing.T) {
	page := NewPage([]string(nil), ListQuery{Page: 1, PerPage: 20}, 41)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 3, page.TotalPages)
}

func TestTourValidate(t *testing.T) {
	tour := &Tour{
		Title:        "Bali Island Escape",
		Slug:         "bali-island-escape",
		Destination:  "Bali",
		DurationDays: 5,
		Price:        decimal.NewFromInt(899),
	}
	assert.NoError(t, tour.Validate())

	tour.Slug = "Bali Island"
	tour.Price = decimal.NewFromInt(-1)
	err := tour.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "slug")
	assert.Contains(t, err.Error(), "price")
}

func TestEventValidate_EndBeforeStart(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	ev := &Event{Title: "Jazz Night", Slug: "jazz-night", Venue: "Harbour Hall", StartsAt: start, EndsAt: start.Add(-time.Hour)}

	err := ev.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ends_at")

	assert.True(t, ev.Ended(start.Add(time.Minute)))
	assert.False(t, (&Event{StartsAt: start}).Ended(start.Add(-time.Minute)))
}

func TestBlogPrepare(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := &Blog{Published: true}
	b.Prepare(now)
	assert.Equal(t, now, *b.PublishedAt)

	b.Prepare(now.Add(time.Hour))
	assert.Equal(t, now, *b.PublishedAt)
}

func TestLookupKind(t *testing.T) {
	ks, ok := LookupKind("car-rental")
	assert.True(t, ok)
	assert.Equal(t, "car_rental_bookings", ks.Collection)
	assert.IsType(t, &CarRentalDetails{}, ks.NewDetails())

	_, ok = LookupKind("hotel")
	assert.False(t, ok)

	for _, ks := range BookingKinds() {
		assert.Equal(t, len(ks.Columns), len(ks.NewDetails().Columns()), ks.Kind)
	}
}

func TestCarRentalDetails(t *testing.T) {
	pickup := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := &CarRentalDetails{VehicleID: "v1", PickupLocation: "Airport", PickupAt: pickup, ReturnAt: pickup.Add(49 * time.Hour)}

	assert.NoError(t, d.Validate())
	assert.Equal(t, 3, d.RentalDays())

	d.ReturnAt = pickup.Add(2 * time.Hour)
	assert.Equal(t, 1, d.RentalDays())

	d.ReturnAt = pickup
	assert.Error(t, d.Validate())
}

func TestAirTravelDetails(t *testing.T) {
	d := &AirTravelDetails{Origin: "Sydney", Destination: "Tokyo", DepartDate: "2026-04-10", TripType: TripRoundTrip, Passengers: 2}
	err := d.Validate()
	assert.Error(t, err, "round trip requires a return date")

	d.ReturnDate = "2026-04-01"
	assert.Error(t, d.Validate())

	d.ReturnDate = "2026-04-20"
	assert.NoError(t, d.Validate())
	assert.Equal(t, "ECONOMY", d.Columns()["travel_class"])

	oneWay := &AirTravelDetails{Origin: "Sydney", Destination: "Tokyo", DepartDate: "2026-04-10", TripType: TripOneWay, Passengers: 1}
	assert.NoError(t, oneWay.Validate())
}

func TestBookingRequestValidate(t *testing.T) {
	req := &BookingRequest{FullName: "Jo", Email: "not-an-email"}
	err := req.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email")

	req.Email = "jo@example.com"
	assert.NoError(t, req.Validate())
}

func TestUserUpdateTouchesPrivileges(t *testing.T) {
	name := "New name"
	role := RoleEditor
	assert.False(t, UserUpdate{Name: &name}.TouchesPrivileges())
	assert.True(t, UserUpdate{Role: &role}.TouchesPrivileges())
}

func TestSessionActive(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, s.Active(now))

	revoked := now
	s.RevokedAt = &revoked
	assert.False(t, s.Active(now))

	assert.False(t, (&Session{ExpiresAt: now.Add(-time.Second)}).Active(now))
}
