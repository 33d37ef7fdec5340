// Package wizarddb holds all the migrations for the wizard database
package wizarddb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the wizard database
var Migrations = migrate.NewMigrations()
