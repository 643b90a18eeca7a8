package cli

import (
	"fmt"

	"gorm.io/gorm"

	"churchhub_backend/internals/configs"
	database "churchhub_backend/internals/databases"
)

func openDatabase(cfg configs.DatabaseConfig) (*gorm.DB, error) {
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	database.TunePool(db, cfg)
	return db, nil
}
