// Package reporting copies bookings into a Postgres reporting database, where
// they are queried by BI tooling outside of the CMS.
package reporting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"travel-agency/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS booking_reports (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	reference   TEXT NOT NULL,
	full_name   TEXT NOT NULL,
	email       TEXT NOT NULL,
	status      TEXT NOT NULL,
	total       NUMERIC(12, 2) NOT NULL DEFAULT 0,
	details     JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	exported_at TIMESTAMPTZ NOT NULL
)`

const upsertQuery = `
INSERT INTO booking_reports
	(id, kind, reference, full_name, email, status, total, details, created_at, updated_at, exported_at)
VALUES
	(:id, :kind, :reference, :full_name, :email, :status, :total, :details, :created_at, :updated_at, :exported_at)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	total = EXCLUDED.total,
	details = EXCLUDED.details,
	updated_at = EXCLUDED.updated_at,
	exported_at = EXCLUDED.exported_at`

// DB is the subset of *sqlx.DB used by the exporter.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

type BookingLister interface {
	List(ctx context.Context, ks models.KindSpec, q models.ListQuery) ([]*models.Booking, int, error)
}

// Row is one booking_reports record.
type Row struct {
	ID         string          `db:"id"`
	Kind       string          `db:"kind"`
	Reference  string          `db:"reference"`
	FullName   string          `db:"full_name"`
	Email      string          `db:"email"`
	Status     string          `db:"status"`
	Total      decimal.Decimal `db:"total"`
	Details    []byte          `db:"details"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
	ExportedAt time.Time       `db:"exported_at"`
}

func NewRow(b *models.Booking, exportedAt time.Time) (Row, error) {
	details := b.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return Row{}, fmt.Errorf("encode details of %s: %w", b.Reference, err)
	}
	return Row{
		ID:         b.ID,
		Kind:       string(b.Kind),
		Reference:  b.Reference,
		FullName:   b.FullName,
		Email:      b.Email,
		Status:     string(b.Status),
		Total:      b.Total.Round(2),
		Details:    raw,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		ExportedAt: exportedAt,
	}, nil
}

type Exporter struct {
	db       DB
	bookings BookingLister
	now      func() time.Time
}

func NewExporter(db DB, bookings BookingLister) *Exporter {
	return &Exporter{db: db, bookings: bookings, now: time.Now}
}

// Connect opens the reporting database.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect reporting db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (x *Exporter) EnsureSchema(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create booking_reports: %w", err)
	}
	return nil
}

// Export upserts every booking updated at or after since and returns the
// number of rows written per kind. A zero since exports everything.
func (x *Exporter) Export(ctx context.Context, since time.Time) (map[models.BookingKind]int, error) {
	exportedAt := x.now().UTC()
	counts := make(map[models.BookingKind]int)

	for _, ks := range models.BookingKinds() {
		n, err := x.exportKind(ctx, ks, since, exportedAt)
		counts[ks.Kind] = n
		if err != nil {
			return counts, err
		}
		slog.Info("Exported bookings", "kind", ks.Kind, "rows", n)
	}
	return counts, nil
}

func (x *Exporter) exportKind(ctx context.Context, ks models.KindSpec, since, exportedAt time.Time) (int, error) {
	written := 0
	for page := 1; ; page++ {
		q := models.ListQuery{Page: page, PerPage: models.MaxPerPage, Sort: "-updated"}
		items, total, err := x.bookings.List(ctx, ks, q)
		if err != nil {
			return written, fmt.Errorf("list %s bookings: %w", ks.Kind, err)
		}

		for _, b := range items {
			// sorted newest first, so the rest is older too
			if !since.IsZero() && b.UpdatedAt.Before(since) {
				return written, nil
			}
			row, err := NewRow(b, exportedAt)
			if err != nil {
				return written, err
			}
			if _, err := x.db.NamedExecContext(ctx, upsertQuery, row); err != nil {
				return written, fmt.Errorf("upsert %s: %w", b.Reference, err)
			}
			written++
		}

		if len(items) == 0 || page*models.MaxPerPage >= total {
			return written, nil
		}
	}
}
