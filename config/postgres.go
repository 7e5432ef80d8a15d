package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	pgrepo "github.com/yoockh/yoosocial/internal/repositories/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var PostgresDB *gorm.DB

func InitPostgres() error {
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		return errors.New("POSTGRES_URI environment variable is not set")
	}
	level := gormlogger.Warn
	if getEnv("LOG_LEVEL", "info") == "debug" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(getEnvInt("POSTGRES_MAX_IDLE", 10))
	sqlDB.SetMaxOpenConns(getEnvInt("POSTGRES_MAX_OPEN", 50))
	sqlDB.SetConnMaxLifetime(getEnvDuration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}

	PostgresDB = db
	return nil
}

// MigratePostgres creates or updates the tables owned by this service.
func MigratePostgres() error {
	if PostgresDB == nil {
		return errors.New("PostgresDB is nil; call InitPostgres() first")
	}
	return PostgresDB.AutoMigrate(pgrepo.Models()...)
}
