package store

import (
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"travel-agency/internal/schema"
	"travel-agency/models"
)

var published = dbx.HashExp{"published": true}

func CategoryCodec() Codec[*models.Category] {
	return Codec[*models.Category]{
		Collection:  schema.Categories,
		Search:      []string{"name", "description"},
		Sorts:       []string{"name", "kind"},
		DefaultSort: "name",
		Decode: func(r *core.Record) *models.Category {
			return &models.Category{
				ID:          r.Id,
				Name:        r.GetString("name"),
				Slug:        r.GetString("slug"),
				Kind:        models.CategoryKind(r.GetString("kind")),
				Description: r.GetString("description"),
				Audit:       decodeAudit(r),
			}
		},
		Encode: func(c *models.Category, r *core.Record) {
			r.Set("name", c.Name)
			r.Set("slug", c.Slug)
			r.Set("kind", string(c.Kind))
			r.Set("description", c.Description)
		},
	}
}

func TourCodec() Codec[*models.Tour] {
	return Codec[*models.Tour]{
		Collection: schema.Tours,
		Search:     []string{"title", "summary", "destination"},
		Sorts:      []string{"title", "price", "duration_days", "destination"},
		Visible:    published,
		Decode: func(r *core.Record) *models.Tour {
			return &models.Tour{
				ID:           r.Id,
				Title:        r.GetString("title"),
				Slug:         r.GetString("slug"),
				Summary:      r.GetString("summary"),
				Description:  r.GetString("description"),
				CategoryID:   r.GetString("category"),
				Destination:  r.GetString("destination"),
				DurationDays: r.GetInt("duration_days"),
				Price:        getDecimal(r, "price"),
				MaxGroupSize: r.GetInt("max_group_size"),
				CoverImage:   r.GetString("cover_image"),
				Featured:     r.GetBool("featured"),
				Published:    r.GetBool("published"),
				Audit:        decodeAudit(r),
			}
		},
		Encode: func(t *models.Tour, r *core.Record) {
			r.Set("title", t.Title)
			r.Set("slug", t.Slug)
			r.Set("summary", t.Summary)
			r.Set("description", t.Description)
			r.Set("category", t.CategoryID)
			r.Set("destination", t.Destination)
			r.Set("duration_days", t.DurationDays)
			r.Set("price", t.Price.InexactFloat64())
			r.Set("max_group_size", t.MaxGroupSize)
			r.Set("cover_image", t.CoverImage)
			r.Set("featured", t.Featured)
			r.Set("published", t.Published)
		},
	}
}

func EventCodec() Codec[*models.Event] {
	return Codec[*models.Event]{
		Collection:  schema.Events,
		Search:      []string{"title", "venue"},
		Sorts:       []string{"title", "starts_at", "price"},
		DefaultSort: "starts_at",
		Visible:     published,
		Decode: func(r *core.Record) *models.Event {
			return &models.Event{
				ID:          r.Id,
				Title:       r.GetString("title"),
				Slug:        r.GetString("slug"),
				Description: r.GetString("description"),
				CategoryID:  r.GetString("category"),
				Venue:       r.GetString("venue"),
				StartsAt:    getTime(r, "starts_at"),
				EndsAt:      getTime(r, "ends_at"),
				Capacity:    r.GetInt("capacity"),
				Price:       getDecimal(r, "price"),
				CoverImage:  r.GetString("cover_image"),
				Published:   r.GetBool("published"),
				Audit:       decodeAudit(r),
			}
		},
		Encode: func(ev *models.Event, r *core.Record) {
			r.Set("title", ev.Title)
			r.Set("slug", ev.Slug)
			r.Set("description", ev.Description)
			r.Set("category", ev.CategoryID)
			r.Set("venue", ev.Venue)
			r.Set("starts_at", ev.StartsAt)
			if ev.EndsAt.IsZero() {
				r.Set("ends_at", "")
			} else {
				r.Set("ends_at", ev.EndsAt)
			}
			r.Set("capacity", ev.Capacity)
			r.Set("price", ev.Price.InexactFloat64())
			r.Set("cover_image", ev.CoverImage)
			r.Set("published", ev.Published)
		},
	}
}

func VehicleCodec() Codec[*models.Vehicle] {
	return Codec[*models.Vehicle]{
		Collection:  schema.Vehicles,
		Search:      []string{"name"},
		Sorts:       []string{"name", "daily_rate", "seats"},
		DefaultSort: "daily_rate",
		Visible:     dbx.HashExp{"available": true},
		Decode: func(r *core.Record) *models.Vehicle {
			return &models.Vehicle{
				ID:          r.Id,
				Name:        r.GetString("name"),
				Slug:        r.GetString("slug"),
				VehicleType: models.VehicleType(r.GetString("vehicle_type")),
				Seats:       r.GetInt("seats"),
				DailyRate:   getDecimal(r, "daily_rate"),
				Image:       r.GetString("image"),
				Available:   r.GetBool("available"),
				Audit:       decodeAudit(r),
			}
		},
		Encode: func(v *models.Vehicle, r *core.Record) {
			r.Set("name", v.Name)
			r.Set("slug", v.Slug)
			r.Set("vehicle_type", string(v.VehicleType))
			r.Set("seats", v.Seats)
			r.Set("daily_rate", v.DailyRate.InexactFloat64())
			r.Set("image", v.Image)
			r.Set("available", v.Available)
		},
	}
}

func FAQCodec() Codec[*models.FAQ] {
	return Codec[*models.FAQ]{
		Collection:  schema.FAQs,
		Search:      []string{"question", "answer"},
		Sorts:       []string{"sort_order", "topic"},
		DefaultSort: "sort_order",
		Visible:     published,
		Decode: func(r *core.Record) *models.FAQ {
			return &models.FAQ{
				ID:        r.Id,
				Question:  r.GetString("question"),
				Answer:    r.GetString("answer"),
				Topic:     r.GetString("topic"),
				SortOrder: r.GetInt("sort_order"),
				Published: r.GetBool("published"),
				Audit:     decodeAudit(r),
			}
		},
		Encode: func(f *models.FAQ, r *core.Record) {
			r.Set("question", f.Question)
			r.Set("answer", f.Answer)
			r.Set("topic", f.Topic)
			r.Set("sort_order", f.SortOrder)
			r.Set("published", f.Published)
		},
	}
}

func BlogCodec() Codec[*models.Blog] {
	return Codec[*models.Blog]{
		Collection:  schema.Blogs,
		Search:      []string{"title", "excerpt", "content"},
		Sorts:       []string{"title", "published_at"},
		DefaultSort: "-published_at",
		Visible:     published,
		Decode: func(r *core.Record) *models.Blog {
			var tags []string
			_ = r.UnmarshalJSONField("tags", &tags)
			return &models.Blog{
				ID:          r.Id,
				Title:       r.GetString("title"),
				Slug:        r.GetString("slug"),
				Excerpt:     r.GetString("excerpt"),
				Content:     r.GetString("content"),
				CategoryID:  r.GetString("category"),
				CoverImage:  r.GetString("cover_image"),
				Tags:        tags,
				Published:   r.GetBool("published"),
				PublishedAt: getTimePtr(r, "published_at"),
				Audit:       decodeAudit(r),
			}
		},
		Encode: func(b *models.Blog, r *core.Record) {
			tags := b.Tags
			if tags == nil {
				tags = []string{}
			}
			r.Set("title", b.Title)
			r.Set("slug", b.Slug)
			r.Set("excerpt", b.Excerpt)
			r.Set("content", b.Content)
			r.Set("category", b.CategoryID)
			r.Set("cover_image", b.CoverImage)
			r.Set("tags", tags)
			r.Set("published", b.Published)
			r.Set("published_at", timeValue(b.PublishedAt))
		},
	}
}

func ImageCodec() Codec[*models.Image] {
	return Codec[*models.Image]{
		Collection:  schema.Images,
		Search:      []string{"title", "album"},
		Sorts:       []string{"sort_order", "album", "title"},
		DefaultSort: "sort_order",
		Visible:     published,
		Decode: func(r *core.Record) *models.Image {
			return &models.Image{
				ID:        r.Id,
				Title:     r.GetString("title"),
				ImageURL:  r.GetString("image_url"),
				Alt:       r.GetString("alt"),
				Album:     r.GetString("album"),
				SortOrder: r.GetInt("sort_order"),
				Published: r.GetBool("published"),
				Audit:     decodeAudit(r),
			}
		},
		Encode: func(i *models.Image, r *core.Record) {
			r.Set("title", i.Title)
			r.Set("image_url", i.ImageURL)
			r.Set("alt", i.Alt)
			r.Set("album", i.Album)
			r.Set("sort_order", i.SortOrder)
			r.Set("published", i.Published)
		},
	}
}

func TestimonialCodec() Codec[*models.Testimonial] {
	return Codec[*models.Testimonial]{
		Collection: schema.Testimonials,
		Search:     []string{"name", "message"},
		Sorts:      []string{"rating", "name"},
		Visible:    dbx.HashExp{"approved": true},
		Decode: func(r *core.Record) *models.Testimonial {
			return &models.Testimonial{
				ID:       r.Id,
				Name:     r.GetString("name"),
				Location: r.GetString("location"),
				Rating:   r.GetInt("rating"),
				Message:  r.GetString("message"),
				Approved: r.GetBool("approved"),
				Audit:    decodeAudit(r),
			}
		},
		Encode: func(t *models.Testimonial, r *core.Record) {
			r.Set("name", t.Name)
			r.Set("location", t.Location)
			r.Set("rating", t.Rating)
			r.Set("message", t.Message)
			r.Set("approved", t.Approved)
		},
	}
}

func NewsletterCodec() Codec[*models.NewsletterSubscriber] {
	return Codec[*models.NewsletterSubscriber]{
		Collection: schema.Newsletter,
		Search:     []string{"email"},
		Sorts:      []string{"email", "subscribed"},
		Decode: func(r *core.Record) *models.NewsletterSubscriber {
			return &models.NewsletterSubscriber{
				ID:             r.Id,
				Email:          r.GetString("email"),
				Token:          r.GetString("token"),
				Subscribed:     r.GetBool("subscribed"),
				ConfirmedAt:    getTimePtr(r, "confirmed_at"),
				UnsubscribedAt: getTimePtr(r, "unsubscribed_at"),
				Audit:          decodeAudit(r),
			}
		},
		Encode: func(n *models.NewsletterSubscriber, r *core.Record) {
			r.Set("email", n.Email)
			r.Set("token", n.Token)
			r.Set("subscribed", n.Subscribed)
			r.Set("confirmed_at", timeValue(n.ConfirmedAt))
			r.Set("unsubscribed_at", timeValue(n.UnsubscribedAt))
		},
	}
}

func UserCodec() Codec[*models.User] {
	return Codec[*models.User]{
		Collection: schema.Users,
		Search:     []string{"email", "name"},
		Sorts:      []string{"email", "name", "role"},
		Decode: func(r *core.Record) *models.User {
			return &models.User{
				ID:       r.Id,
				Email:    r.Email(),
				Name:     r.GetString("name"),
				Role:     models.Role(r.GetString("role")),
				Active:   r.GetBool("active"),
				Verified: r.Verified(),
				Audit:    decodeAudit(r),
			}
		},
		Encode: func(u *models.User, r *core.Record) {
			r.Set("name", u.Name)
			r.Set("role", string(u.Role))
			r.Set("active", u.Active)
		},
	}
}
