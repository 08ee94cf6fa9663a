package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"travel-agency/internal/schema"
)

func init() {
	m.Register(func(app core.App) error {
		categories := schema.CategoriesCollection(schema.UsersCollectionID)
		if err := app.Save(categories); err != nil {
			return err
		}

		collections := []*core.Collection{
			schema.ToursCollection(schema.UsersCollectionID, categories.Id),
			schema.EventsCollection(schema.UsersCollectionID, categories.Id),
			schema.VehiclesCollection(schema.UsersCollectionID),
			schema.FAQsCollection(schema.UsersCollectionID),
			schema.BlogsCollection(schema.UsersCollectionID, categories.Id),
			schema.ImagesCollection(schema.UsersCollectionID),
			schema.TestimonialsCollection(schema.UsersCollectionID),
			schema.NewsletterCollection(),
		}
		for _, c := range collections {
			if err := app.Save(c); err != nil {
				return err
			}
		}
		return nil
	}, func(app core.App) error {
		// referencing collections go first
		names := []string{
			schema.Newsletter, schema.Testimonials, schema.Images, schema.Blogs,
			schema.FAQs, schema.Vehicles, schema.Events, schema.Tours, schema.Categories,
		}
		return deleteCollections(app, names...)
	})
}
