package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"travel-agency/models"
)

type fakeCounter struct {
	counts map[models.BookingKind]map[models.Status]int
}

func (f *fakeCounter) CountByStatus(_ context.Context, ks models.KindSpec) (map[models.Status]int, error) {
	counts, ok := f.counts[ks.Kind]
	if !ok {
		return nil, errors.New("table missing")
	}
	return counts, nil
}

func TestMonitorCollect(t *testing.T) {
	counter := &fakeCounter{counts: map[models.BookingKind]map[models.Status]int{
		models.KindTour:  {models.StatusPending: 3, models.StatusCompleted: 1},
		models.KindEvent: {models.StatusPending: 7},
	}}

	NewMonitor(counter, 0).Collect(context.Background())

	assert.Equal(t, 3.0, testutil.ToFloat64(bookingsByStatus.WithLabelValues("tour", "PENDING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(bookingsByStatus.WithLabelValues("tour", "COMPLETED")))
	assert.Equal(t, 7.0, testutil.ToFloat64(bookingsByStatus.WithLabelValues("event", "PENDING")))
}

func TestTrackCounters(t *testing.T) {
	before := testutil.ToFloat64(rateLimited.WithLabelValues("login"))
	TrackRateLimited("login")
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimited.WithLabelValues("login")))

	before = testutil.ToFloat64(bookingSubmissions.WithLabelValues("cab", "created"))
	TrackBookingSubmission(models.KindCab, "created")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingSubmissions.WithLabelValues("cab", "created")))
}
