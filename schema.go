package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateTables creates the users and counters tables if they do not
// exist. Meant for the sqlite deployments and tests; larger installs
// should run proper migrations instead.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Counter)(nil),
	}

	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create table").
				WithMetadata(map[string]any{
					"model": model,
				})
		}
	}

	return nil
}
