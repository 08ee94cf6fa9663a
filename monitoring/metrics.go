package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"travel-agency/models"
)

var (
	bookingsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookings_by_status",
			Help: "Current number of bookings per kind and status",
		},
		[]string{"kind", "status"},
	)

	bookingSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_submissions_total",
			Help: "Total booking submissions",
		},
		[]string{"kind", "result"},
	)

	bookingStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_status_changes_total",
			Help: "Total booking status changes",
		},
		[]string{"kind", "status"},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total notification emails by template and outcome",
		},
		[]string{"template", "result"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	sessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_events_total",
			Help: "Session logins and revocations",
		},
		[]string{"event"},
	)

	emailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "email_send_duration_seconds",
			Help:    "Duration of SMTP sends",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

func TrackBookingSubmission(kind models.BookingKind, result string) {
	bookingSubmissions.WithLabelValues(string(kind), result).Inc()
}

func TrackStatusChange(kind models.BookingKind, to models.Status) {
	bookingStatusChanges.WithLabelValues(string(kind), string(to)).Inc()
}

func TrackEmail(template, result string, duration time.Duration) {
	emailsSent.WithLabelValues(template, result).Inc()
	if duration > 0 {
		emailSendDuration.Observe(duration.Seconds())
	}
}

func TrackRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

func TrackSession(event string) {
	sessionEvents.WithLabelValues(event).Inc()
}

// StatusCounter reports booking counts per status for one kind.
type StatusCounter interface {
	CountByStatus(ctx context.Context, ks models.KindSpec) (map[models.Status]int, error)
}

// Monitor refreshes gauges that are read from the database.
type Monitor struct {
	counter  StatusCounter
	interval time.Duration
}

func NewMonitor(counter StatusCounter, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{counter: counter, interval: interval}
}

// Run collects metrics until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Collect(ctx)
		}
	}
}

func (m *Monitor) Collect(ctx context.Context) {
	for _, ks := range models.BookingKinds() {
		counts, err := m.counter.CountByStatus(ctx, ks)
		if err != nil {
			slog.Error("Failed to collect booking metrics", "kind", ks.Kind, "error", err)
			continue
		}
		for st, n := range counts {
			bookingsByStatus.WithLabelValues(string(ks.Kind), string(st)).Set(float64(n))
		}
	}
}
