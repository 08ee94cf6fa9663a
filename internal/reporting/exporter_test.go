package reporting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-agency/models"
)

type fakeDB struct {
	execs []string
	rows  []Row
	err   error
}

func (f *fakeDB) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	f.execs = append(f.execs, query)
	return nil, f.err
}

func (f *fakeDB) NamedExecContext(_ context.Context, _ string, arg any) (sql.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rows = append(f.rows, arg.(Row))
	return nil, nil
}

type fakeLister struct {
	bookings map[models.BookingKind][]*models.Booking
	pages    []int
}

func (f *fakeLister) List(_ context.Context, ks models.KindSpec, q models.ListQuery) ([]*models.Booking, int, error) {
	all := f.bookings[ks.Kind]
	f.pages = append(f.pages, q.Page)
	start := q.Offset()
	if start >= len(all) {
		return nil, len(all), nil
	}
	end := min(start+q.PerPage, len(all))
	return all[start:end], len(all), nil
}

var exportNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func booking(kind models.BookingKind, n int, updated time.Time) *models.Booking {
	return &models.Booking{
		ID:        fmt.Sprintf("%s-%d", kind, n),
		Kind:      kind,
		Reference: fmt.Sprintf("TB-%04d", n),
		Status:    models.StatusPending,
		Total:     decimal.RequireFromString("120.505"),
		Details:   map[string]any{"adults": 2},
		Audit:     models.Audit{CreatedAt: updated, UpdatedAt: updated},
	}
}

func newTestExporter(db DB, lister BookingLister) *Exporter {
	x := NewExporter(db, lister)
	x.now = func() time.Time { return exportNow }
	return x
}

func TestNewRow(t *testing.T) {
	b := booking(models.KindTour, 1, exportNow.Add(-time.Hour))
	row, err := NewRow(b, exportNow)
	require.NoError(t, err)

	assert.Equal(t, "tour", row.Kind)
	assert.Equal(t, "120.51", row.Total.StringFixed(2))
	assert.JSONEq(t, `{"adults":2}`, string(row.Details))
	assert.Equal(t, exportNow, row.ExportedAt)

	b.Details = nil
	row, err = NewRow(b, exportNow)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(row.Details))
}

func TestExport_PagesThroughEveryKind(t *testing.T) {
	var tours []*models.Booking
	for i := range models.MaxPerPage + 5 {
		tours = append(tours, booking(models.KindTour, i, exportNow.Add(-time.Duration(i)*time.Minute)))
	}
	lister := &fakeLister{bookings: map[models.BookingKind][]*models.Booking{
		models.KindTour:    tours,
		models.KindContact: {booking(models.KindContact, 1, exportNow)},
	}}
	db := &fakeDB{}

	counts, err := newTestExporter(db, lister).Export(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, models.MaxPerPage+5, counts[models.KindTour])
	assert.Equal(t, 1, counts[models.KindContact])
	assert.Equal(t, 0, counts[models.KindCab])
	assert.Len(t, db.rows, models.MaxPerPage+6)
}

func TestExport_StopsAtSince(t *testing.T) {
	since := exportNow.Add(-30 * time.Minute)
	lister := &fakeLister{bookings: map[models.BookingKind][]*models.Booking{
		models.KindEvent: {
			booking(models.KindEvent, 1, exportNow),
			booking(models.KindEvent, 2, since),
			booking(models.KindEvent, 3, since.Add(-time.Second)),
			booking(models.KindEvent, 4, since.Add(-time.Hour)),
		},
	}}
	db := &fakeDB{}

	counts, err := newTestExporter(db, lister).Export(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.KindEvent])
	require.Len(t, db.rows, 2)
	assert.Equal(t, "event-2", db.rows[1].ID)
}

func TestExport_WriteFailure(t *testing.T) {
	lister := &fakeLister{bookings: map[models.BookingKind][]*models.Booking{
		models.KindTour: {booking(models.KindTour, 1, exportNow)},
	}}
	db := &fakeDB{err: errors.New("connection reset")}

	_, err := newTestExporter(db, lister).Export(context.Background(), time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TB-0001")
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, newTestExporter(db, &fakeLister{}).EnsureSchema(context.Background()))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "booking_reports")
}
