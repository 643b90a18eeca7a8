package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churchhub_backend/internals/configs"
	database "churchhub_backend/internals/databases"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbCfg, err := configs.LoadDatabase()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		_, flush := configs.InitLogger(configs.GetEnv("APP_ENV", "development"))
		defer flush()

		db, err := openDatabase(dbCfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		zap.L().Info("✅ migration finished")
		return nil
	},
}
