package history

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: entries, projects and items
		{
			ID: "001_history_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Entry{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&Project{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Item{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("history_items", "history_projects", "history_entries")
			},
		},
	})
	return m.Migrate()
}
