// Package schema defines the PocketBase collections of the travel site.
// Migrations and store tests build their collections from here.
package schema

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"travel-agency/models"
)

// UsersCollectionID is the id PocketBase gives its default users collection.
const UsersCollectionID = "_pb_users_auth_"

const (
	Users        = "users"
	Sessions     = "sessions"
	Categories   = "categories"
	Tours        = "tours"
	Events       = "events"
	Vehicles     = "vehicles"
	FAQs         = "faqs"
	Blogs        = "blogs"
	Images       = "images"
	Testimonials = "testimonials"
	Newsletter   = "newsletter_subscribers"
)

const datePattern = `^\d{4}-\d{2}-\d{2}$`

func auditFields(usersID string) []core.Field {
	return []core.Field{
		&core.RelationField{Name: "created_by", CollectionId: usersID, MaxSelect: 1},
		&core.RelationField{Name: "updated_by", CollectionId: usersID, MaxSelect: 1},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	}
}

func newCollection(name, usersID string, fields ...core.Field) *core.Collection {
	c := core.NewBaseCollection(name)
	c.Fields.Add(fields...)
	c.Fields.Add(auditFields(usersID)...)
	return c
}

func slugIndex(c *core.Collection) {
	c.AddIndex(fmt.Sprintf("idx_%s_slug", c.Name), true, "`slug`", "")
}

// UserFields are the fields added to the default users auth collection.
func UserFields() []core.Field {
	return []core.Field{
		&core.TextField{Name: "name", Max: 120},
		&core.SelectField{Name: "role", MaxSelect: 1, Values: models.RoleValues()},
		&core.BoolField{Name: "active"},
	}
}

func SessionsCollection(usersID string) *core.Collection {
	c := core.NewBaseCollection(Sessions)
	c.Fields.Add(
		&core.RelationField{Name: "user", CollectionId: usersID, MaxSelect: 1, Required: true, CascadeDelete: true},
		&core.TextField{Name: "token_hash", Required: true, Max: 128},
		&core.TextField{Name: "user_agent", Max: 512},
		&core.TextField{Name: "ip", Max: 64},
		&core.DateField{Name: "expires_at", Required: true},
		&core.DateField{Name: "revoked_at"},
		&core.DateField{Name: "last_seen_at"},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	c.AddIndex("idx_sessions_token_hash", true, "`token_hash`", "")
	c.AddIndex("idx_sessions_user", false, "`user`", "")
	return c
}

func CategoriesCollection(usersID string) *core.Collection {
	c := newCollection(Categories, usersID,
		&core.TextField{Name: "name", Required: true, Max: 80},
		&core.TextField{Name: "slug", Required: true, Max: 120},
		&core.SelectField{Name: "kind", Required: true, MaxSelect: 1, Values: models.CategoryKindValues()},
		&core.TextField{Name: "description", Max: 500},
	)
	slugIndex(c)
	return c
}

func ToursCollection(usersID, categoriesID string) *core.Collection {
	c := newCollection(Tours, usersID,
		&core.TextField{Name: "title", Required: true, Max: 160},
		&core.TextField{Name: "slug", Required: true, Max: 120},
		&core.TextField{Name: "summary", Max: 300},
		&core.EditorField{Name: "description"},
		&core.RelationField{Name: "category", CollectionId: categoriesID, MaxSelect: 1},
		&core.TextField{Name: "destination", Required: true, Max: 120},
		&core.NumberField{Name: "duration_days", OnlyInt: true},
		&core.NumberField{Name: "price"},
		&core.NumberField{Name: "max_group_size", OnlyInt: true},
		&core.URLField{Name: "cover_image"},
		&core.BoolField{Name: "featured"},
		&core.BoolField{Name: "published"},
	)
	slugIndex(c)
	return c
}

func EventsCollection(usersID, categoriesID string) *core.Collection {
	c := newCollection(Events, usersID,
		&core.TextField{Name: "title", Required: true, Max: 160},
		&core.TextField{Name: "slug", Required: true, Max: 120},
		&core.EditorField{Name: "description"},
		&core.RelationField{Name: "category", CollectionId: categoriesID, MaxSelect: 1},
		&core.TextField{Name: "venue", Required: true, Max: 160},
		&core.DateField{Name: "starts_at", Required: true},
		&core.DateField{Name: "ends_at"},
		&core.NumberField{Name: "capacity", OnlyInt: true},
		&core.NumberField{Name: "price"},
		&core.URLField{Name: "cover_image"},
		&core.BoolField{Name: "published"},
	)
	slugIndex(c)
	return c
}

func VehiclesCollection(usersID string) *core.Collection {
	c := newCollection(Vehicles, usersID,
		&core.TextField{Name: "name", Required: true, Max: 120},
		&core.TextField{Name: "slug", Required: true, Max: 120},
		&core.SelectField{Name: "vehicle_type", Required: true, MaxSelect: 1, Values: models.VehicleTypeValues()},
		&core.NumberField{Name: "seats", OnlyInt: true},
		&core.NumberField{Name: "daily_rate"},
		&core.URLField{Name: "image"},
		&core.BoolField{Name: "available"},
	)
	slugIndex(c)
	return c
}

func FAQsCollection(usersID string) *core.Collection {
	return newCollection(FAQs, usersID,
		&core.TextField{Name: "question", Required: true, Max: 300},
		&core.TextField{Name: "answer", Required: true, Max: 5000},
		&core.TextField{Name: "topic", Max: 80},
		&core.NumberField{Name: "sort_order", OnlyInt: true},
		&core.BoolField{Name: "published"},
	)
}

func BlogsCollection(usersID, categoriesID string) *core.Collection {
	c := newCollection(Blogs, usersID,
		&core.TextField{Name: "title", Required: true, Max: 200},
		&core.TextField{Name: "slug", Required: true, Max: 120},
		&core.TextField{Name: "excerpt", Max: 500},
		&core.EditorField{Name: "content", Required: true},
		&core.RelationField{Name: "category", CollectionId: categoriesID, MaxSelect: 1},
		&core.URLField{Name: "cover_image"},
		&core.JSONField{Name: "tags"},
		&core.BoolField{Name: "published"},
		&core.DateField{Name: "published_at"},
	)
	slugIndex(c)
	return c
}

func ImagesCollection(usersID string) *core.Collection {
	return newCollection(Images, usersID,
		&core.TextField{Name: "title", Required: true, Max: 160},
		&core.URLField{Name: "image_url", Required: true},
		&core.TextField{Name: "alt", Max: 200},
		&core.TextField{Name: "album", Max: 80},
		&core.NumberField{Name: "sort_order", OnlyInt: true},
		&core.BoolField{Name: "published"},
	)
}

func TestimonialsCollection(usersID string) *core.Collection {
	return newCollection(Testimonials, usersID,
		&core.TextField{Name: "name", Required: true, Max: 120},
		&core.TextField{Name: "location", Max: 120},
		&core.NumberField{Name: "rating", OnlyInt: true},
		&core.TextField{Name: "message", Required: true, Max: 2000},
		&core.BoolField{Name: "approved"},
	)
}

func NewsletterCollection() *core.Collection {
	c := core.NewBaseCollection(Newsletter)
	c.Fields.Add(
		&core.EmailField{Name: "email", Required: true},
		&core.TextField{Name: "token", Required: true, Max: 64},
		&core.BoolField{Name: "subscribed"},
		&core.DateField{Name: "confirmed_at"},
		&core.DateField{Name: "unsubscribed_at"},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	c.AddIndex("idx_newsletter_email", true, "`email`", "")
	c.AddIndex("idx_newsletter_token", true, "`token`", "")
	return c
}

// Refs holds the ids of the collections booking tables point at.
type Refs struct {
	Users    string
	Tours    string
	Events   string
	Vehicles string
}

// BookingCollection builds the table of one booking kind.
func BookingCollection(ks models.KindSpec, refs Refs) *core.Collection {
	c := newCollection(ks.Collection, refs.Users,
		&core.TextField{Name: "reference", Required: true, Max: 32},
		&core.TextField{Name: "full_name", Required: true, Max: 120},
		&core.EmailField{Name: "email", Required: true},
		&core.TextField{Name: "phone", Max: 30},
		&core.TextField{Name: "message", Max: 4000},
		&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: models.StatusValues()},
		&core.TextField{Name: "admin_notes", Max: 4000},
		&core.NumberField{Name: "total"},
	)
	c.Fields.Add(detailFields(ks.Kind, refs)...)
	c.AddIndex(fmt.Sprintf("idx_%s_reference", ks.Collection), true, "`reference`", "")
	c.AddIndex(fmt.Sprintf("idx_%s_status", ks.Collection), false, "`status`", "")
	return c
}

func detailFields(kind models.BookingKind, refs Refs) []core.Field {
	switch kind {
	case models.KindTour:
		return []core.Field{
			&core.RelationField{Name: "tour", CollectionId: refs.Tours, MaxSelect: 1, Required: true},
			&core.TextField{Name: "travel_date", Required: true, Pattern: datePattern},
			&core.NumberField{Name: "adults", OnlyInt: true},
			&core.NumberField{Name: "children", OnlyInt: true},
		}
	case models.KindCab:
		return []core.Field{
			&core.TextField{Name: "pickup_location", Required: true, Max: 200},
			&core.TextField{Name: "dropoff_location", Required: true, Max: 200},
			&core.DateField{Name: "pickup_at", Required: true},
			&core.NumberField{Name: "passengers", OnlyInt: true},
			&core.SelectField{Name: "vehicle_type", MaxSelect: 1, Values: models.VehicleTypeValues()},
		}
	case models.KindCarRental:
		return []core.Field{
			&core.RelationField{Name: "vehicle", CollectionId: refs.Vehicles, MaxSelect: 1, Required: true},
			&core.TextField{Name: "pickup_location", Required: true, Max: 200},
			&core.TextField{Name: "dropoff_location", Max: 200},
			&core.DateField{Name: "pickup_at", Required: true},
			&core.DateField{Name: "return_at", Required: true},
			&core.BoolField{Name: "with_driver"},
		}
	case models.KindEvent:
		return []core.Field{
			&core.RelationField{Name: "event", CollectionId: refs.Events, MaxSelect: 1, Required: true},
			&core.NumberField{Name: "attendees", OnlyInt: true},
		}
	case models.KindAirTravel:
		return []core.Field{
			&core.TextField{Name: "origin", Required: true, Max: 120},
			&core.TextField{Name: "destination", Required: true, Max: 120},
			&core.TextField{Name: "depart_date", Required: true, Pattern: datePattern},
			&core.TextField{Name: "return_date", Pattern: datePattern},
			&core.SelectField{Name: "trip_type", Required: true, MaxSelect: 1, Values: []string{string(models.TripOneWay), string(models.TripRoundTrip)}},
			&core.SelectField{Name: "travel_class", MaxSelect: 1, Values: []string{
				string(models.ClassEconomy), string(models.ClassPremium), string(models.ClassBusiness), string(models.ClassFirst),
			}},
			&core.NumberField{Name: "passengers", OnlyInt: true},
		}
	case models.KindContact:
		return []core.Field{
			&core.TextField{Name: "subject", Required: true, Max: 200},
		}
	}
	return nil
}
