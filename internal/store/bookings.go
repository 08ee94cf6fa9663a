package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"travel-agency/models"
)

// BookingStore keeps the submissions of every booking kind, one collection per kind.
type BookingStore struct {
	app core.App
}

func NewBookingStore(app core.App) *BookingStore {
	return &BookingStore{app: app}
}

func (s *BookingStore) Create(ctx context.Context, ks models.KindSpec, b *models.Booking, details models.BookingDetails) (*models.Booking, error) {
	collection, err := s.app.FindCachedCollectionByNameOrId(ks.Collection)
	if err != nil {
		return nil, fmt.Errorf("find collection %s: %w", ks.Collection, err)
	}

	record := core.NewRecord(collection)
	encodeBooking(b, record)
	for col, v := range details.Columns() {
		record.Set(col, v)
	}

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, saveError(ks.Collection, err)
	}
	return DecodeBooking(ks, record), nil
}

func (s *BookingStore) Get(ctx context.Context, ks models.KindSpec, id string) (*models.Booking, error) {
	record, err := findRecord(ctx, s.app, ks.Collection, dbx.HashExp{"id": id})
	if err != nil {
		return nil, err
	}
	return DecodeBooking(ks, record), nil
}

// List filters by q.Filters (status) and searches name, email and reference.
func (s *BookingStore) List(ctx context.Context, ks models.KindSpec, q models.ListQuery) ([]*models.Booking, int, error) {
	q = q.Normalize()

	var exps []dbx.Expression
	if len(q.Filters) > 0 {
		exps = append(exps, dbx.HashExp(q.Filters))
	}
	if search := searchExp(q.Search, []string{"full_name", "email", "reference"}); search != nil {
		exps = append(exps, search)
	}
	var where dbx.Expression
	if len(exps) > 0 {
		where = dbx.And(exps...)
	}

	total, err := countRecords(ctx, s.app, ks.Collection, where)
	if err != nil {
		return nil, 0, err
	}

	records := []*core.Record{}
	query := s.app.RecordQuery(ks.Collection).
		WithContext(ctx).
		OrderBy(orderBy(q.Sort, "-created", []string{"status", "full_name", "reference", "total"})...).
		Limit(int64(q.PerPage)).
		Offset(int64(q.Offset()))
	if where != nil {
		query.AndWhere(where)
	}
	if err := query.All(&records); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", ks.Collection, err)
	}

	items := make([]*models.Booking, len(records))
	for i, r := range records {
		items[i] = DecodeBooking(ks, r)
	}
	return items, total, nil
}

// UpdateStatus stores a new review state. Notes are left untouched when nil.
func (s *BookingStore) UpdateStatus(ctx context.Context, ks models.KindSpec, id string, to models.Status, notes *string, actorID string) (*models.Booking, error) {
	record, err := findRecord(ctx, s.app, ks.Collection, dbx.HashExp{"id": id})
	if err != nil {
		return nil, err
	}

	record.Set("status", string(to))
	if notes != nil {
		record.Set("admin_notes", *notes)
	}
	setAudit(record, "updated_by", actorID)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, saveError(ks.Collection, err)
	}
	return DecodeBooking(ks, record), nil
}

func (s *BookingStore) Delete(ctx context.Context, ks models.KindSpec, id string) error {
	return deleteRecord(ctx, s.app, ks.Collection, id)
}

func (s *BookingStore) ReferenceExists(ctx context.Context, ks models.KindSpec, reference string) (bool, error) {
	n, err := countRecords(ctx, s.app, ks.Collection, dbx.HashExp{"reference": reference})
	return n > 0, err
}

type statusCount struct {
	Status string `db:"status"`
	Total  int    `db:"total"`
}

// CountByStatus returns the number of bookings of a kind in each status.
func (s *BookingStore) CountByStatus(ctx context.Context, ks models.KindSpec) (map[models.Status]int, error) {
	rows := []statusCount{}
	err := s.app.DB().
		Select("status", "count(*) AS total").
		From(ks.Collection).
		GroupBy("status").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("count %s by status: %w", ks.Collection, err)
	}

	counts := make(map[models.Status]int, len(models.Statuses()))
	for _, st := range models.Statuses() {
		counts[st] = 0
	}
	for _, row := range rows {
		counts[models.Status(row.Status)] = row.Total
	}
	return counts, nil
}

// ReservedSeats sums the attendees of the non archived registrations of an event.
func (s *BookingStore) ReservedSeats(ctx context.Context, eventID string) (int, error) {
	ks, _ := models.LookupKind(string(models.KindEvent))

	var total int
	err := s.app.DB().
		Select("COALESCE(SUM(attendees), 0)").
		From(ks.Collection).
		Where(dbx.HashExp{"event": eventID}).
		AndWhere(dbx.Not(dbx.HashExp{"status": string(models.StatusArchived)})).
		WithContext(ctx).
		Row(&total)
	if err != nil {
		return 0, fmt.Errorf("sum attendees of %s: %w", eventID, err)
	}
	return total, nil
}

func encodeBooking(b *models.Booking, r *core.Record) {
	r.Set("reference", b.Reference)
	r.Set("full_name", b.FullName)
	r.Set("email", b.Email)
	r.Set("phone", b.Phone)
	r.Set("message", b.Message)
	r.Set("status", string(b.Status))
	r.Set("admin_notes", b.AdminNotes)
	r.Set("total", b.Total.InexactFloat64())
}

// DecodeBooking reads the common columns and the kind specific details of a record.
func DecodeBooking(ks models.KindSpec, r *core.Record) *models.Booking {
	details := make(map[string]any, len(ks.Columns))
	for _, col := range ks.Columns {
		v := r.Get(col)
		if dt, ok := v.(types.DateTime); ok {
			if dt.IsZero() {
				v = nil
			} else {
				v = dt.Time()
			}
		}
		details[col] = v
	}

	return &models.Booking{
		ID:         r.Id,
		Kind:       ks.Kind,
		Reference:  r.GetString("reference"),
		FullName:   r.GetString("full_name"),
		Email:      r.GetString("email"),
		Phone:      r.GetString("phone"),
		Message:    r.GetString("message"),
		Status:     models.Status(r.GetString("status")),
		AdminNotes: r.GetString("admin_notes"),
		Total:      getDecimal(r, "total"),
		Details:    details,
		Audit:      decodeAudit(r),
	}
}
