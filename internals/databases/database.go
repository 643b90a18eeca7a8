package database

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"churchhub_backend/internals/configs"
	branchModel "churchhub_backend/internals/features/branches/model"
	donationModel "churchhub_backend/internals/features/donations/donations/model"
	eventModel "churchhub_backend/internals/features/donations/gateway_events/model"
	projectModel "churchhub_backend/internals/features/projects/model"
	userModel "churchhub_backend/internals/features/users/model"
)

// ConnectDB opens the postgres pool. Unique violations are translated to gorm.ErrDuplicatedKey.
func ConnectDB(cfg configs.DatabaseConfig) (*gorm.DB, error) {
	zap.L().Info("🔌 Connecting to PostgreSQL...", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("✅ DB connected")
	return db, nil
}

func TunePool(db *gorm.DB, cfg configs.DatabaseConfig) {
	sqlDB, err := db.DB()
	if err != nil {
		zap.L().Warn("pool tune failed", zap.Error(err))
		return
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&userModel.User{},
		&branchModel.Branch{},
		&projectModel.Project{},
		&donationModel.Donation{},
		&eventModel.GatewayEvent{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
