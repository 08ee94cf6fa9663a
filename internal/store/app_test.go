package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-agency/internal/clock"
	"travel-agency/internal/schema"
	"travel-agency/internal/services"
	"travel-agency/internal/status"
	"travel-agency/internal/store"
	_ "travel-agency/migrations"
	"travel-agency/models"
)

// newTestApp bootstraps a PocketBase app in a temporary directory and applies
// the system and application migrations.
func newTestApp(t *testing.T) core.App {
	t.Helper()

	app := core.NewBaseApp(core.BaseAppConfig{DataDir: t.TempDir()})
	require.NoError(t, app.Bootstrap())
	require.NoError(t, app.RunAllMigrations())
	t.Cleanup(func() { _ = app.ResetBootstrapState() })
	return app
}

func newStaff(t *testing.T, app core.App, email string, role models.Role) *models.User {
	t.Helper()
	user, err := store.NewUserStore(app).Create(context.Background(), &models.NewUser{
		Email:    email,
		Name:     "Staff Member",
		Role:     role,
		Password: "correct-horse-42",
	})
	require.NoError(t, err)
	return user
}

type quietNotifier struct{}

func (quietNotifier) BookingReceived(models.KindSpec, *models.Booking)      {}
func (quietNotifier) BookingStatusChanged(models.KindSpec, *models.Booking) {}

func TestMigrations(t *testing.T) {
	app := newTestApp(t)

	names := []string{
		schema.Sessions, schema.Categories, schema.Tours, schema.Events, schema.Vehicles,
		schema.FAQs, schema.Blogs, schema.Images, schema.Testimonials, schema.Newsletter,
	}
	for _, ks := range models.BookingKinds() {
		names = append(names, ks.Collection)
	}
	for _, name := range names {
		_, err := app.FindCollectionByNameOrId(name)
		assert.NoError(t, err, name)
	}

	users, err := app.FindCollectionByNameOrId(schema.Users)
	require.NoError(t, err)
	assert.NotNil(t, users.Fields.GetByName("role"))
	assert.NotNil(t, users.Fields.GetByName("active"))
}

func TestRecordStore_SaveAndQuery(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	manager := newStaff(t, app, "cm@example.com", models.RoleContentManager)
	categories := store.NewRecordStore(app, store.CategoryCodec())

	culture, err := categories.Save(ctx, &models.Category{Name: "Culture", Slug: "culture", Kind: models.CategoryTour}, manager.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, culture.ID)
	assert.Equal(t, manager.ID, culture.CreatedBy)
	assert.Equal(t, manager.ID, culture.UpdatedBy)

	_, err = categories.Save(ctx, &models.Category{Name: "Beach Escapes", Slug: "beach", Kind: models.CategoryTour, Description: "Sand and sun"}, "")
	require.NoError(t, err)

	t.Run("unique slug index is a conflict", func(t *testing.T) {
		_, err := categories.Save(ctx, &models.Category{Name: "Culture again", Slug: "culture", Kind: models.CategoryGeneral}, manager.ID)
		assert.ErrorIs(t, err, status.ErrConflict)
	})

	t.Run("taken ignores the excluded record", func(t *testing.T) {
		taken, err := categories.Taken(ctx, "slug", "culture", "")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = categories.Taken(ctx, "slug", "culture", culture.ID)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("search matches name and description", func(t *testing.T) {
		items, total, err := categories.List(ctx, models.ListQuery{Search: "sun"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "beach", items[0].Slug)
	})

	t.Run("update keeps the author", func(t *testing.T) {
		culture.Description = "Temples and museums"
		updated, err := categories.Save(ctx, culture, "")
		require.NoError(t, err)
		assert.Equal(t, manager.ID, updated.CreatedBy)

		fetched, err := categories.Get(ctx, culture.ID)
		require.NoError(t, err)
		assert.Equal(t, "Temples and museums", fetched.Description)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := categories.Get(ctx, "does-not-exist")
		assert.ErrorIs(t, err, status.ErrNotFound)
	})
}

func TestRecordStore_HiddenRecords(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	tours := store.NewRecordStore(app, store.TourCodec())

	for _, tour := range []*models.Tour{
		{Title: "Mekong Cruise", Slug: "mekong-cruise", Destination: "Pakse", Price: decimal.NewFromInt(120), Published: true},
		{Title: "Draft Trek", Slug: "draft-trek", Destination: "Sapa", Price: decimal.NewFromInt(90)},
	} {
		_, err := tours.Save(ctx, tour, "")
		require.NoError(t, err)
	}

	_, total, err := tours.List(ctx, models.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = tours.List(ctx, models.ListQuery{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestContentService_RealStore(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	clk := clock.NewSystem()
	superuser := models.Actor{ID: "su-root", Email: "root@example.com", Role: models.RoleAdmin, Active: true, Superuser: true}

	categories := services.NewContentService[*models.Category]("categories", models.PermManageContent,
		store.NewRecordStore(app, store.CategoryCodec()), clk)

	t.Run("superuser writes succeed without an author", func(t *testing.T) {
		created, err := categories.Create(ctx, superuser, &models.Category{Name: "Festivals", Kind: models.CategoryEvent})
		require.NoError(t, err)
		assert.Empty(t, created.CreatedBy)

		created.Description = "Boat races and lantern nights"
		updated, err := categories.Update(ctx, superuser, created.ID, created)
		require.NoError(t, err)
		assert.Empty(t, updated.UpdatedBy)
	})

	t.Run("anonymous submission cannot overwrite a testimonial", func(t *testing.T) {
		repo := store.NewRecordStore(app, store.TestimonialCodec())
		testimonials := services.NewContentService[*models.Testimonial]("testimonials", models.PermManageContent, repo, clk,
			services.WithPublicSubmit(func(v *models.Testimonial) { v.Approved = false }),
		)

		orig, err := repo.Save(ctx, &models.Testimonial{Name: "Alice", Rating: 5, Message: "Best holiday we ever had.", Approved: true}, "")
		require.NoError(t, err)

		_, err = testimonials.Submit(ctx, &models.Testimonial{ID: orig.ID, Name: "Mallory", Rating: 1, Message: "Replaced by a visitor."})
		var verr *status.ValidationError
		require.ErrorAs(t, err, &verr)

		stored, err := repo.Get(ctx, orig.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", stored.Name)
		assert.True(t, stored.Approved)
	})
}

func TestBookingStore_WithBookingService(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	manager := newStaff(t, app, "cm@example.com", models.RoleContentManager)
	superuser := models.Actor{ID: "su-root", Role: models.RoleAdmin, Active: true, Superuser: true}
	staff := models.Actor{ID: manager.ID, Email: manager.Email, Role: manager.Role, Active: true}

	events := store.NewRecordStore(app, store.EventCodec())
	bookings := store.NewBookingStore(app)
	svc := services.NewBookingService(bookings, services.Catalog{
		Tours:    store.NewRecordStore(app, store.TourCodec()),
		Events:   events,
		Vehicles: store.NewRecordStore(app, store.VehicleCodec()),
	}, quietNotifier{}, nil, clock.NewSystem())

	event, err := events.Save(ctx, &models.Event{
		Title:     "Boat Racing Festival",
		Slug:      "boat-racing-festival",
		Venue:     "Vientiane riverside",
		StartsAt:  time.Now().AddDate(0, 1, 0).UTC().Truncate(time.Second),
		Capacity:  7,
		Price:     decimal.NewFromInt(15),
		Published: true,
	}, manager.ID)
	require.NoError(t, err)

	register := func(name string, attendees int) (*models.Booking, error) {
		return svc.Submit(ctx, &models.BookingRequest{
			Kind:     models.KindEvent,
			FullName: name,
			Email:    "guest@example.com",
			Details:  &models.EventRegistrationDetails{EventID: event.ID, Attendees: attendees},
		})
	}

	first, err := register("Somchai Vong", 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.True(t, first.Total.Equal(decimal.NewFromInt(45)), first.Total.String())

	second, err := register("Noy Phommachanh", 4)
	require.NoError(t, err)

	t.Run("capacity counts live registrations", func(t *testing.T) {
		reserved, err := bookings.ReservedSeats(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, reserved)

		_, err = register("Late Guest", 1)
		assert.ErrorIs(t, err, status.ErrEventFull)
	})

	t.Run("archived registrations free their seats", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, staff, models.KindEvent, second.ID, models.StatusUpdate{Status: models.StatusArchived})
		require.NoError(t, err)

		reserved, err := bookings.ReservedSeats(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, reserved)

		_, err = register("Late Guest", 4)
		require.NoError(t, err)
	})

	t.Run("status change persists on re-fetch", func(t *testing.T) {
		notes := "Seats confirmed by phone"
		_, err := svc.UpdateStatus(ctx, staff, models.KindEvent, first.ID, models.StatusUpdate{Status: models.StatusInProgress, AdminNotes: &notes})
		require.NoError(t, err)

		fetched, err := svc.Get(ctx, staff, models.KindEvent, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, fetched.Status)
		assert.Equal(t, notes, fetched.AdminNotes)
		assert.Equal(t, manager.ID, fetched.UpdatedBy)
		assert.Equal(t, event.ID, fetched.Details["event"])
	})

	t.Run("superuser status change is not attributed", func(t *testing.T) {
		updated, err := svc.UpdateStatus(ctx, superuser, models.KindEvent, first.ID, models.StatusUpdate{Status: models.StatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, updated.Status)
		// the previous author stays; superusers are never written
		assert.Equal(t, manager.ID, updated.UpdatedBy)
	})

	t.Run("list filters by status", func(t *testing.T) {
		page, err := svc.List(ctx, staff, models.KindEvent, models.ListQuery{Filters: map[string]any{"status": string(models.StatusArchived)}})
		require.NoError(t, err)
		assert.Equal(t, 1, page.TotalItems)
		require.Len(t, page.Items, 1)
		assert.Equal(t, second.ID, page.Items[0].ID)

		page, err = svc.List(ctx, staff, models.KindEvent, models.ListQuery{Search: "Noy"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.TotalItems)
	})

	t.Run("counts by status", func(t *testing.T) {
		ks, _ := models.LookupKind(string(models.KindEvent))
		counts, err := bookings.CountByStatus(ctx, ks)
		require.NoError(t, err)
		assert.Equal(t, map[models.Status]int{
			models.StatusPending:    1,
			models.StatusInProgress: 0,
			models.StatusCompleted:  1,
			models.StatusArchived:   1,
		}, counts)
	})
}
