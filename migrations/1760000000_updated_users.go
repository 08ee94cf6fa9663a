package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"travel-agency/internal/schema"
)

func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId(schema.Users)
		if err != nil {
			return err
		}

		for _, field := range schema.UserFields() {
			if collection.Fields.GetByName(field.GetName()) == nil {
				collection.Fields.Add(field)
			}
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId(schema.Users)
		if err != nil {
			return err
		}

		collection.Fields.RemoveByName("role")
		collection.Fields.RemoveByName("active")

		return app.Save(collection)
	})
}
