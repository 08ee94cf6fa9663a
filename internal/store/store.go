// Package store maps the travel models onto PocketBase records.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"travel-agency/internal/status"
	"travel-agency/models"
)

// Codec converts between a model and the record of its collection.
type Codec[T models.Resource] struct {
	Collection string
	Decode     func(r *core.Record) T
	Encode     func(v T, r *core.Record)
	// Search are the columns matched by a free text query.
	Search []string
	// Sorts whitelists the columns a listing may be ordered by.
	Sorts       []string
	DefaultSort string
	// Visible restricts listings for anonymous callers. Nil means everything is public.
	Visible dbx.Expression
}

// RecordStore is a generic repository over one collection.
type RecordStore[T models.Resource] struct {
	app   core.App
	codec Codec[T]
}

func NewRecordStore[T models.Resource](app core.App, codec Codec[T]) *RecordStore[T] {
	return &RecordStore[T]{app: app, codec: codec}
}

func (s *RecordStore[T]) Collection() string { return s.codec.Collection }

func (s *RecordStore[T]) Get(ctx context.Context, id string) (T, error) {
	return s.FindOne(ctx, dbx.HashExp{"id": id})
}

// FindBy returns the record whose field equals value.
func (s *RecordStore[T]) FindBy(ctx context.Context, field string, value any) (T, error) {
	return s.FindOne(ctx, dbx.HashExp{field: value})
}

// Taken reports whether a record other than excludeID has field set to value.
func (s *RecordStore[T]) Taken(ctx context.Context, field string, value any, excludeID string) (bool, error) {
	return s.Exists(ctx, dbx.HashExp{field: value}, excludeID)
}

// FindOne returns the first record matching exp, or status.ErrNotFound.
func (s *RecordStore[T]) FindOne(ctx context.Context, exp dbx.Expression) (T, error) {
	var zero T
	record, err := findRecord(ctx, s.app, s.codec.Collection, exp)
	if err != nil {
		return zero, err
	}
	return s.codec.Decode(record), nil
}

// List returns one page of records together with the total number of matches.
func (s *RecordStore[T]) List(ctx context.Context, q models.ListQuery) ([]T, int, error) {
	q = q.Normalize()
	where := s.where(q)

	total, err := s.Count(ctx, where)
	if err != nil {
		return nil, 0, err
	}

	records := []*core.Record{}
	query := s.app.RecordQuery(s.codec.Collection).
		WithContext(ctx).
		OrderBy(orderBy(q.Sort, s.codec.DefaultSort, s.codec.Sorts)...).
		Limit(int64(q.PerPage)).
		Offset(int64(q.Offset()))
	if where != nil {
		query.AndWhere(where)
	}
	if err := query.All(&records); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.codec.Collection, err)
	}

	items := make([]T, len(records))
	for i, r := range records {
		items[i] = s.codec.Decode(r)
	}
	return items, total, nil
}

func (s *RecordStore[T]) where(q models.ListQuery) dbx.Expression {
	var exps []dbx.Expression
	if len(q.Filters) > 0 {
		exps = append(exps, dbx.HashExp(q.Filters))
	}
	if !q.IncludeHidden && s.codec.Visible != nil {
		exps = append(exps, s.codec.Visible)
	}
	if search := searchExp(q.Search, s.codec.Search); search != nil {
		exps = append(exps, search)
	}
	if len(exps) == 0 {
		return nil
	}
	return dbx.And(exps...)
}

// Count returns the number of records matching exp. A nil exp counts everything.
func (s *RecordStore[T]) Count(ctx context.Context, exp dbx.Expression) (int, error) {
	return countRecords(ctx, s.app, s.codec.Collection, exp)
}

// Exists reports whether a record other than excludeID matches exp.
func (s *RecordStore[T]) Exists(ctx context.Context, exp dbx.Expression, excludeID string) (bool, error) {
	if excludeID != "" {
		exp = dbx.And(exp, dbx.Not(dbx.HashExp{"id": excludeID}))
	}
	n, err := s.Count(ctx, exp)
	return n > 0, err
}

// Save inserts v when it has no id and updates the stored record otherwise.
func (s *RecordStore[T]) Save(ctx context.Context, v T, actorID string) (T, error) {
	var zero T

	var record *core.Record
	if id := v.GetID(); id != "" {
		r, err := findRecord(ctx, s.app, s.codec.Collection, dbx.HashExp{"id": id})
		if err != nil {
			return zero, err
		}
		record = r
	} else {
		collection, err := s.app.FindCachedCollectionByNameOrId(s.codec.Collection)
		if err != nil {
			return zero, fmt.Errorf("find collection %s: %w", s.codec.Collection, err)
		}
		record = core.NewRecord(collection)
		setAudit(record, "created_by", actorID)
	}

	s.codec.Encode(v, record)
	setAudit(record, "updated_by", actorID)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return zero, saveError(s.codec.Collection, err)
	}
	return s.codec.Decode(record), nil
}

func (s *RecordStore[T]) Delete(ctx context.Context, id string) error {
	return deleteRecord(ctx, s.app, s.codec.Collection, id)
}

func findRecord(ctx context.Context, app core.App, collection string, exp dbx.Expression) (*core.Record, error) {
	record := &core.Record{}
	err := app.RecordQuery(collection).
		WithContext(ctx).
		AndWhere(exp).
		Limit(1).
		One(record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return record, nil
}

func countRecords(ctx context.Context, app core.App, collection string, exp dbx.Expression) (int, error) {
	query := app.RecordQuery(collection).WithContext(ctx).Select("count(*)")
	if exp != nil {
		query.AndWhere(exp)
	}
	var total int
	if err := query.Row(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return total, nil
}

func deleteRecord(ctx context.Context, app core.App, collection, id string) error {
	record, err := findRecord(ctx, app, collection, dbx.HashExp{"id": id})
	if err != nil {
		return err
	}
	if err := app.DeleteWithContext(ctx, record); err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	return nil
}

func setAudit(r *core.Record, field, actorID string) {
	if actorID == "" || r.Collection().Fields.GetByName(field) == nil {
		return
	}
	r.Set(field, actorID)
}

// saveError translates PocketBase record validation failures into status errors.
func saveError(collection string, err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	for field, fieldErr := range errs {
		var verr validation.Error
		if errors.As(fieldErr, &verr) && verr.Code() == "validation_not_unique" {
			return fmt.Errorf("%s %s: %w", collection, field, status.ErrConflict)
		}
	}
	return status.Validation(errs)
}

func searchExp(term string, columns []string) dbx.Expression {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return nil
	}
	exps := make([]dbx.Expression, len(columns))
	for i, col := range columns {
		exps[i] = dbx.Like(col, term)
	}
	return dbx.Or(exps...)
}

// orderBy turns a "-column" style sort into an ORDER BY clause, ignoring
// columns that are not whitelisted.
func orderBy(sort, fallback string, allowed []string) []string {
	if sort == "" {
		sort = fallback
	}
	if sort == "" {
		sort = "-created"
	}

	var cols []string
	for _, part := range strings.Split(sort, ",") {
		part = strings.TrimSpace(part)
		dir := "ASC"
		if strings.HasPrefix(part, "-") {
			dir = "DESC"
			part = part[1:]
		} else {
			part = strings.TrimPrefix(part, "+")
		}
		if part == "created" || part == "updated" || contains(allowed, part) {
			cols = append(cols, fmt.Sprintf("[[%s]] %s", part, dir))
		}
	}
	if len(cols) == 0 && sort != fallback {
		return orderBy(fallback, "-created", allowed)
	}
	return cols
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func decodeAudit(r *core.Record) models.Audit {
	return models.Audit{
		CreatedAt: r.GetDateTime("created").Time(),
		UpdatedAt: r.GetDateTime("updated").Time(),
		CreatedBy: r.GetString("created_by"),
		UpdatedBy: r.GetString("updated_by"),
	}
}

func getDecimal(r *core.Record, field string) decimal.Decimal {
	return decimal.NewFromFloat(r.GetFloat(field)).Round(2)
}

func getTime(r *core.Record, field string) time.Time {
	return r.GetDateTime(field).Time()
}

func getTimePtr(r *core.Record, field string) *time.Time {
	dt := r.GetDateTime(field)
	if dt.IsZero() {
		return nil
	}
	t := dt.Time()
	return &t
}

// timeValue stores nil pointers as an empty date.
func timeValue(t *time.Time) any {
	if t == nil {
		return ""
	}
	return *t
}
