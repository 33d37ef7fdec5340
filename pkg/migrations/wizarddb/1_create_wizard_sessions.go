package wizarddb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/tokenforge/wizard-middleware/pkg/pgutil/migrations"
	"github.com/tokenforge/wizard-middleware/pkg/sessionstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating wizard_sessions table...")
		if err := mghelper.CreateSchema(ctx, db, &sessionstore.SessionDao{}); err != nil {
			return err
		}
		// Create indexes
		return mghelper.CreateModelIndexes(ctx, db, &sessionstore.SessionDao{}, "status", "updated_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping wizard_sessions table...")
		return mghelper.DropTables(ctx, db, &sessionstore.SessionDao{})
	})
}
