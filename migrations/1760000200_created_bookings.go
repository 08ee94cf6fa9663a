package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"travel-agency/internal/schema"
	"travel-agency/models"
)

func init() {
	m.Register(func(app core.App) error {
		refs := schema.Refs{Users: schema.UsersCollectionID}
		for name, id := range map[string]*string{
			schema.Tours:    &refs.Tours,
			schema.Events:   &refs.Events,
			schema.Vehicles: &refs.Vehicles,
		} {
			c, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				return err
			}
			*id = c.Id
		}

		for _, ks := range models.BookingKinds() {
			if err := app.Save(schema.BookingCollection(ks, refs)); err != nil {
				return err
			}
		}
		return nil
	}, func(app core.App) error {
		var names []string
		for _, ks := range models.BookingKinds() {
			names = append(names, ks.Collection)
		}
		return deleteCollections(app, names...)
	})
}
