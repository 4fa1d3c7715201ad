package Commands

import (
	"log"

	"Chronos/Models"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := Models.Open(cfg.Database)
		if err != nil {
			return err
		}
		if err := Models.Migrate(db); err != nil {
			return err
		}
		log.Printf("Migrated %s database", cfg.Database.Driver)
		return nil
	},
}
