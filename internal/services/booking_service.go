package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"travel-agency/internal/clock"
	"travel-agency/internal/status"
	"travel-agency/models"
	"travel-agency/monitoring"
	"travel-agency/utils"
)

const referenceAttempts = 5

type BookingRepository interface {
	Create(ctx context.Context, ks models.KindSpec, b *models.Booking, details models.BookingDetails) (*models.Booking, error)
	Get(ctx context.Context, ks models.KindSpec, id string) (*models.Booking, error)
	List(ctx context.Context, ks models.KindSpec, q models.ListQuery) ([]*models.Booking, int, error)
	UpdateStatus(ctx context.Context, ks models.KindSpec, id string, to models.Status, notes *string, actorID string) (*models.Booking, error)
	Delete(ctx context.Context, ks models.KindSpec, id string) error
	ReferenceExists(ctx context.Context, ks models.KindSpec, reference string) (bool, error)
	CountByStatus(ctx context.Context, ks models.KindSpec) (map[models.Status]int, error)
	ReservedSeats(ctx context.Context, eventID string) (int, error)
}

// Getter loads one record by id.
type Getter[T any] interface {
	Get(ctx context.Context, id string) (T, error)
}

// Catalog gives bookings access to the priced content they reference.
type Catalog struct {
	Tours    Getter[*models.Tour]
	Events   Getter[*models.Event]
	Vehicles Getter[*models.Vehicle]
}

// Notifier sends the emails that follow booking activity. Implementations
// must not block the caller.
type Notifier interface {
	BookingReceived(ks models.KindSpec, b *models.Booking)
	BookingStatusChanged(ks models.KindSpec, b *models.Booking)
}

// Publisher pushes realtime messages to the admin dashboard.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

type BookingService struct {
	repo      BookingRepository
	catalog   Catalog
	notifier  Notifier
	publisher Publisher
	clock     clock.Clock
	reference func(prefix string) (string, error)
}

func NewBookingService(repo BookingRepository, catalog Catalog, notifier Notifier, publisher Publisher, clk clock.Clock) *BookingService {
	return &BookingService{
		repo:      repo,
		catalog:   catalog,
		notifier:  notifier,
		publisher: publisher,
		clock:     clk,
		reference: utils.GenerateReference,
	}
}

func (s *BookingService) ks(kind models.BookingKind) (models.KindSpec, error) {
	ks, ok := models.LookupKind(string(kind))
	if !ok {
		return models.KindSpec{}, fmt.Errorf("booking kind %q: %w", kind, status.ErrNotFound)
	}
	return ks, nil
}

// Submit validates and prices a public submission, stores it as PENDING and
// triggers the notifications.
func (s *BookingService) Submit(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	ks, err := s.ks(req.Kind)
	if err != nil {
		return nil, err
	}

	req.Email = models.NormalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validateRequest(req); err != nil {
		monitoring.TrackBookingSubmission(ks.Kind, "invalid")
		return nil, err
	}

	total, err := s.price(ctx, req)
	if err != nil {
		monitoring.TrackBookingSubmission(ks.Kind, "rejected")
		return nil, err
	}

	reference, err := s.newReference(ctx, ks)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Create(ctx, ks, &models.Booking{
		Kind:      ks.Kind,
		Reference: reference,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Message:   strings.TrimSpace(req.Message),
		Status:    models.StatusPending,
		Total:     total,
	}, req.Details)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", ks.Kind, err)
	}

	monitoring.TrackBookingSubmission(ks.Kind, "created")
	slog.Info("Booking received", "kind", ks.Kind, "reference", booking.Reference, "id", booking.ID)

	s.notifier.BookingReceived(ks, booking)
	s.publish(ctx, "booking_created", ks, booking)
	return booking, nil
}

func validateRequest(req *models.BookingRequest) error {
	errs := validation.Errors{}
	if err := req.Validate(); err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for k, v := range fieldErrs {
			errs[k] = v
		}
	}

	if req.Details == nil {
		errs["details"] = validation.NewError("validation_required", "cannot be blank")
	} else if err := req.Details.Validate(); err != nil {
		errs["details"] = err
	}

	if req.Kind == models.KindContact && strings.TrimSpace(req.Message) == "" {
		errs["message"] = validation.NewError("validation_required", "cannot be blank")
	}

	if len(errs) == 0 {
		return nil
	}
	return status.Validation(errs)
}

// price applies the kind specific business rules and returns the booking total.
func (s *BookingService) price(ctx context.Context, req *models.BookingRequest) (decimal.Decimal, error) {
	now := s.clock.Now()
	today := now.Truncate(24 * time.Hour)

	switch d := req.Details.(type) {
	case *models.TourDetails:
		tour, err := s.catalog.Tours.Get(ctx, d.TourID)
		if errors.Is(err, status.ErrNotFound) || (err == nil && !tour.Published) {
			return decimal.Zero, status.Invalid("tour_id", "tour does not exist")
		}
		if err != nil {
			return decimal.Zero, err
		}
		travel, _ := time.Parse(models.DateLayout, d.TravelDate)
		if travel.Before(today) {
			return decimal.Zero, status.Invalid("travel_date", "must not be in the past")
		}
		if tour.MaxGroupSize > 0 && d.Travellers() > tour.MaxGroupSize {
			return decimal.Zero, status.Invalid("adults", fmt.Sprintf("group is limited to %d travellers", tour.MaxGroupSize))
		}
		return tour.Price.Mul(decimal.NewFromInt(int64(d.Travellers()))), nil

	case *models.CarRentalDetails:
		vehicle, err := s.catalog.Vehicles.Get(ctx, d.VehicleID)
		if errors.Is(err, status.ErrNotFound) {
			return decimal.Zero, status.Invalid("vehicle_id", "vehicle does not exist")
		}
		if err != nil {
			return decimal.Zero, err
		}
		if !vehicle.Available {
			return decimal.Zero, status.Invalid("vehicle_id", "vehicle is not available")
		}
		if d.PickupAt.Before(now) {
			return decimal.Zero, status.Invalid("pickup_at", "must not be in the past")
		}
		return vehicle.DailyRate.Mul(decimal.NewFromInt(int64(d.RentalDays()))), nil

	case *models.EventRegistrationDetails:
		event, err := s.catalog.Events.Get(ctx, d.EventID)
		if errors.Is(err, status.ErrNotFound) || (err == nil && !event.Published) {
			return decimal.Zero, status.Invalid("event_id", "event does not exist")
		}
		if err != nil {
			return decimal.Zero, err
		}
		if event.Ended(now) {
			return decimal.Zero, status.Invalid("event_id", "event has already taken place")
		}
		if event.Capacity > 0 {
			reserved, err := s.repo.ReservedSeats(ctx, event.ID)
			if err != nil {
				return decimal.Zero, err
			}
			if reserved+d.Attendees > event.Capacity {
				return decimal.Zero, status.ErrEventFull
			}
		}
		return event.Price.Mul(decimal.NewFromInt(int64(d.Attendees))), nil

	case *models.CabDetails:
		if d.PickupAt.Before(now) {
			return decimal.Zero, status.Invalid("pickup_at", "must not be in the past")
		}

	case *models.AirTravelDetails:
		depart, _ := time.Parse(models.DateLayout, d.DepartDate)
		if depart.Before(today) {
			return decimal.Zero, status.Invalid("depart_date", "must not be in the past")
		}
	}
	return decimal.Zero, nil
}

func (s *BookingService) newReference(ctx context.Context, ks models.KindSpec) (string, error) {
	for i := 0; i < referenceAttempts; i++ {
		ref, err := s.reference(ks.Prefix)
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		exists, err := s.repo.ReferenceExists(ctx, ks, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	return "", fmt.Errorf("no free %s reference after %d attempts", ks.Prefix, referenceAttempts)
}

func (s *BookingService) List(ctx context.Context, actor models.Actor, kind models.BookingKind, q models.ListQuery) (models.Page[*models.Booking], error) {
	if !actor.Can(models.PermManageBookings) {
		return models.Page[*models.Booking]{}, status.ErrForbidden
	}
	ks, err := s.ks(kind)
	if err != nil {
		return models.Page[*models.Booking]{}, err
	}

	q = q.Normalize()
	if st, ok := q.Filters["status"]; ok {
		if !models.Status(fmt.Sprint(st)).Valid() {
			return models.Page[*models.Booking]{}, status.Invalid("status", "unknown status")
		}
	}

	items, total, err := s.repo.List(ctx, ks, q)
	if err != nil {
		return models.Page[*models.Booking]{}, fmt.Errorf("list %s: %w", ks.Kind, err)
	}
	return models.NewPage(items, q, total), nil
}

func (s *BookingService) Get(ctx context.Context, actor models.Actor, kind models.BookingKind, id string) (*models.Booking, error) {
	if !actor.Can(models.PermManageBookings) {
		return nil, status.ErrForbidden
	}
	ks, err := s.ks(kind)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ks, id)
}

// UpdateStatus moves a booking along the review workflow.
func (s *BookingService) UpdateStatus(ctx context.Context, actor models.Actor, kind models.BookingKind, id string, upd models.StatusUpdate) (*models.Booking, error) {
	if !actor.Can(models.PermManageBookings) {
		return nil, status.ErrForbidden
	}
	ks, err := s.ks(kind)
	if err != nil {
		return nil, err
	}
	if !upd.Status.Valid() {
		return nil, status.Invalid("status", "must be one of "+strings.Join(models.StatusValues(), ", "))
	}

	current, err := s.repo.Get(ctx, ks, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, upd.Status) {
		return nil, fmt.Errorf("%s -> %s: %w", current.Status, upd.Status, status.ErrInvalidTransition)
	}

	booking, err := s.repo.UpdateStatus(ctx, ks, id, upd.Status, upd.AdminNotes, actor.AuditID())
	if err != nil {
		return nil, err
	}

	if current.Status != booking.Status {
		monitoring.TrackStatusChange(ks.Kind, booking.Status)
		slog.Info("Booking status changed", "kind", ks.Kind, "reference", booking.Reference,
			"from", current.Status, "to", booking.Status, "by", actor.ID)

		if booking.Status == models.StatusInProgress || booking.Status == models.StatusCompleted {
			s.notifier.BookingStatusChanged(ks, booking)
		}
		s.publish(ctx, "booking_status_changed", ks, booking)
	}
	return booking, nil
}

func (s *BookingService) Delete(ctx context.Context, actor models.Actor, kind models.BookingKind, id string) error {
	if !actor.Can(models.PermManageBookings) {
		return status.ErrForbidden
	}
	ks, err := s.ks(kind)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, ks, id)
}

// Dashboard holds the booking counts shown on the admin landing page.
type Dashboard struct {
	Kinds    map[models.BookingKind]map[models.Status]int `json:"kinds"`
	ByStatus map[models.Status]int                        `json:"by_status"`
	Total    int                                          `json:"total"`
}

func (s *BookingService) Dashboard(ctx context.Context, actor models.Actor) (*Dashboard, error) {
	if !actor.Can(models.PermViewDashboard) {
		return nil, status.ErrForbidden
	}

	d := &Dashboard{
		Kinds:    make(map[models.BookingKind]map[models.Status]int),
		ByStatus: make(map[models.Status]int),
	}
	for _, ks := range models.BookingKinds() {
		counts, err := s.repo.CountByStatus(ctx, ks)
		if err != nil {
			return nil, fmt.Errorf("dashboard %s: %w", ks.Kind, err)
		}
		d.Kinds[ks.Kind] = counts
		for st, n := range counts {
			d.ByStatus[st] += n
			d.Total += n
		}
	}
	return d, nil
}

func (s *BookingService) publish(ctx context.Context, event string, ks models.KindSpec, b *models.Booking) {
	if s.publisher == nil {
		return
	}
	payload := map[string]any{
		"kind":      ks.Kind,
		"label":     ks.Label,
		"id":        b.ID,
		"reference": b.Reference,
		"status":    b.Status,
		"full_name": b.FullName,
		"total":     b.Total.StringFixed(2),
	}
	if err := s.publisher.Publish(ctx, event, payload); err != nil {
		slog.Error("Failed to publish booking event", "event", event, "reference", b.Reference, "error", err)
	}
}
