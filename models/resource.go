package models

import (
	"regexp"
	"strings"
	"time"
)

// Audit holds the bookkeeping columns every table carries.
type Audit struct {
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// Resource is implemented by every CMS managed model.
type Resource interface {
	GetID() string
	Validate() error
}

// Sluggable resources are addressable by a unique slug derived from their title.
type Sluggable interface {
	Resource
	SlugSource() string
	GetSlug() string
	SetSlug(slug string)
}

// Publishable resources can be hidden from anonymous visitors.
type Publishable interface {
	Visible() bool
}

// Categorized resources reference a category by id.
type Categorized interface {
	CategoryRef() string
}

// ListQuery describes a paginated listing.
type ListQuery struct {
	Page          int
	PerPage       int
	Sort          string
	Search        string
	Filters       map[string]any
	IncludeHidden bool
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Normalize clamps paging values to their allowed range.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func NewPage[T any](items []T, q ListQuery, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if q.PerPage > 0 {
		pages = (total + q.PerPage - 1) / q.PerPage
	}
	return Page[T]{Items: items, Page: q.Page, PerPage: q.PerPage, TotalItems: total, TotalPages: pages}
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 120 {
		s = strings.TrimRight(s[:120], "-")
	}
	return s
}

// Preparer resources normalise derived fields before they are validated and saved.
type Preparer interface {
	Prepare(now time.Time)
}
