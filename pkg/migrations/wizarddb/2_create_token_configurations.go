package wizarddb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/tokenforge/wizard-middleware/pkg/pgutil/migrations"
	"github.com/tokenforge/wizard-middleware/pkg/tokenstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating token_configurations table...")
		if err := mghelper.CreateSchema(ctx, db, &tokenstore.TokenConfigDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &tokenstore.TokenConfigDao{}, "session_id", "symbol"); err != nil {
			return err
		}
		// One deployment reference per token
		return mghelper.CreateModelUniqueIndexes(ctx, db, &tokenstore.TokenConfigDao{}, "token_ref")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping token_configurations table...")
		return mghelper.DropTables(ctx, db, &tokenstore.TokenConfigDao{})
	})
}
