package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"travel-agency/internal/schema"
)

func init() {
	m.Register(func(app core.App) error {
		return app.Save(schema.SessionsCollection(schema.UsersCollectionID))
	}, func(app core.App) error {
		return deleteCollections(app, schema.Sessions)
	})
}
