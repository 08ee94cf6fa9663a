package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// CategoryKind scopes a category to the content it groups.
type CategoryKind string

const (
	CategoryTour    CategoryKind = "TOUR"
	CategoryEvent   CategoryKind = "EVENT"
	CategoryBlog    CategoryKind = "BLOG"
	CategoryGeneral CategoryKind = "GENERAL"
)

func CategoryKindValues() []string {
	return []string{string(CategoryTour), string(CategoryEvent), string(CategoryBlog), string(CategoryGeneral)}
}

// VehicleType is the class of a rental vehicle or requested cab.
type VehicleType string

const (
	VehicleSedan   VehicleType = "SEDAN"
	VehicleSUV     VehicleType = "SUV"
	VehicleVan     VehicleType = "VAN"
	VehicleMinibus VehicleType = "MINIBUS"
	VehicleLuxury  VehicleType = "LUXURY"
)

func VehicleTypeValues() []string {
	return []string{string(VehicleSedan), string(VehicleSUV), string(VehicleVan), string(VehicleMinibus), string(VehicleLuxury)}
}

var slugRule = validation.Match(slugPattern).Error("must contain only lowercase letters, digits and dashes")

var nonNegative = validation.By(func(value any) error {
	d, ok := value.(decimal.Decimal)
	if ok && d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
})

type Category struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Kind        CategoryKind `json:"kind"`
	Description string       `json:"description"`
	Audit
}

func (c *Category) GetID() string       { return c.ID }
func (c *Category) SlugSource() string  { return c.Name }
func (c *Category) GetSlug() string     { return c.Slug }
func (c *Category) SetSlug(slug string) { c.Slug = slug }

func (c *Category) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Length(2, 80)),
		validation.Field(&c.Slug, validation.Required, slugRule),
		validation.Field(&c.Kind, validation.Required, validation.In(CategoryTour, CategoryEvent, CategoryBlog, CategoryGeneral)),
		validation.Field(&c.Description, validation.Length(0, 500)),
	)
}

type Tour struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Summary      string          `json:"summary"`
	Description  string          `json:"description"`
	CategoryID   string          `json:"category_id"`
	Destination  string          `json:"destination"`
	DurationDays int             `json:"duration_days"`
	Price        decimal.Decimal `json:"price"`
	MaxGroupSize int             `json:"max_group_size"`
	CoverImage   string          `json:"cover_image"`
	Featured     bool            `json:"featured"`
	Published    bool            `json:"published"`
	Audit
}

func (t *Tour) GetID() string       { return t.ID }
func (t *Tour) SlugSource() string  { return t.Title }
func (t *Tour) GetSlug() string     { return t.Slug }
func (t *Tour) SetSlug(slug string) { t.Slug = slug }
func (t *Tour) CategoryRef() string { return t.CategoryID }
func (t *Tour) Visible() bool       { return t.Published }

func (t *Tour) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Title, validation.Required, validation.Length(3, 160)),
		validation.Field(&t.Slug, validation.Required, slugRule),
		validation.Field(&t.Summary, validation.Length(0, 300)),
		validation.Field(&t.Destination, validation.Required, validation.Length(2, 120)),
		validation.Field(&t.DurationDays, validation.Required, validation.Min(1), validation.Max(365)),
		validation.Field(&t.Price, nonNegative),
		validation.Field(&t.MaxGroupSize, validation.Min(0), validation.Max(500)),
		validation.Field(&t.CoverImage, is.URL),
	)
}

type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Venue       string          `json:"venue"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      time.Time       `json:"ends_at"`
	Capacity    int             `json:"capacity"`
	Price       decimal.Decimal `json:"price"`
	CoverImage  string          `json:"cover_image"`
	Published   bool            `json:"published"`
	Audit
}

func (ev *Event) GetID() string       { return ev.ID }
func (ev *Event) SlugSource() string  { return ev.Title }
func (ev *Event) GetSlug() string     { return ev.Slug }
func (ev *Event) SetSlug(slug string) { ev.Slug = slug }
func (ev *Event) CategoryRef() string { return ev.CategoryID }
func (ev *Event) Visible() bool       { return ev.Published }

// Ended reports whether the event is over at now.
func (ev *Event) Ended(now time.Time) bool {
	end := ev.EndsAt
	if end.IsZero() {
		end = ev.StartsAt
	}
	return !end.IsZero() && end.Before(now)
}

func (ev *Event) Validate() error {
	return validation.ValidateStruct(ev,
		validation.Field(&ev.Title, validation.Required, validation.Length(3, 160)),
		validation.Field(&ev.Slug, validation.Required, slugRule),
		validation.Field(&ev.Venue, validation.Required, validation.Length(2, 160)),
		validation.Field(&ev.StartsAt, validation.Required),
		validation.Field(&ev.EndsAt, validation.By(func(any) error {
			if !ev.EndsAt.IsZero() && ev.EndsAt.Before(ev.StartsAt) {
				return errors.New("must not be before starts_at")
			}
			return nil
		})),
		validation.Field(&ev.Capacity, validation.Min(0)),
		validation.Field(&ev.Price, nonNegative),
		validation.Field(&ev.CoverImage, is.URL),
	)
}

type Vehicle struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	VehicleType VehicleType     `json:"vehicle_type"`
	Seats       int             `json:"seats"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	Image       string          `json:"image"`
	Available   bool            `json:"available"`
	Audit
}

func (v *Vehicle) GetID() string       { return v.ID }
func (v *Vehicle) SlugSource() string  { return v.Name }
func (v *Vehicle) GetSlug() string     { return v.Slug }
func (v *Vehicle) SetSlug(slug string) { v.Slug = slug }
func (v *Vehicle) Visible() bool       { return v.Available }

func (v *Vehicle) Validate() error {
	return validation.ValidateStruct(v,
		validation.Field(&v.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&v.Slug, validation.Required, slugRule),
		validation.Field(&v.VehicleType, validation.Required, validation.In(VehicleSedan, VehicleSUV, VehicleVan, VehicleMinibus, VehicleLuxury)),
		validation.Field(&v.Seats, validation.Required, validation.Min(1), validation.Max(60)),
		validation.Field(&v.DailyRate, nonNegative),
		validation.Field(&v.Image, is.URL),
	)
}

type FAQ struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Topic     string `json:"topic"`
	SortOrder int    `json:"sort_order"`
	Published bool   `json:"published"`
	Audit
}

func (f *FAQ) GetID() string  { return f.ID }
func (f *FAQ) Visible() bool { return f.Published }

func (f *FAQ) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Question, validation.Required, validation.Length(5, 300)),
		validation.Field(&f.Answer, validation.Required, validation.Length(1, 5000)),
		validation.Field(&f.Topic, validation.Length(0, 80)),
	)
}

type Blog struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CategoryID  string     `json:"category_id"`
	CoverImage  string     `json:"cover_image"`
	Tags        []string   `json:"tags"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Audit
}

func (b *Blog) GetID() string       { return b.ID }
func (b *Blog) SlugSource() string  { return b.Title }
func (b *Blog) GetSlug() string     { return b.Slug }
func (b *Blog) SetSlug(slug string) { b.Slug = slug }
func (b *Blog) CategoryRef() string { return b.CategoryID }
func (b *Blog) Visible() bool       { return b.Published }

func (b *Blog) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&b.Slug, validation.Required, slugRule),
		validation.Field(&b.Excerpt, validation.Length(0, 500)),
		validation.Field(&b.Content, validation.Required),
		validation.Field(&b.CoverImage, is.URL),
		validation.Field(&b.Tags, validation.Length(0, 20), validation.Each(validation.Length(1, 40))),
	)
}

// Image is a gallery entry.
type Image struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	Alt       string `json:"alt"`
	Album     string `json:"album"`
	SortOrder int    `json:"sort_order"`
	Published bool   `json:"published"`
	Audit
}

func (i *Image) GetID() string  { return i.ID }
func (i *Image) Visible() bool { return i.Published }

func (i *Image) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.Title, validation.Required, validation.Length(1, 160)),
		validation.Field(&i.ImageURL, validation.Required, is.URL),
		validation.Field(&i.Alt, validation.Length(0, 200)),
		validation.Field(&i.Album, validation.Length(0, 80)),
	)
}

type Testimonial struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Rating   int    `json:"rating"`
	Message  string `json:"message"`
	Approved bool   `json:"approved"`
	Audit
}

func (t *Testimonial) GetID() string  { return t.ID }
func (t *Testimonial) Visible() bool { return t.Approved }

func (t *Testimonial) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&t.Location, validation.Length(0, 120)),
		validation.Field(&t.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&t.Message, validation.Required, validation.Length(10, 2000)),
	)
}

// Prepare stamps the publication time the first time a post is published.
func (b *Blog) Prepare(now time.Time) {
	if b.Published && b.PublishedAt == nil {
		published := now
		b.PublishedAt = &published
	}
}
