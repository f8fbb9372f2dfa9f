package main

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatlist/internal/database"
	"chatlist/internal/llm"
	"chatlist/internal/secrets"
	"chatlist/internal/services"
)

// App owns the database handle and the wired service container.
type App struct {
	DB       *gorm.DB
	Services *services.Services
	Keyring  *secrets.KeyringResolver

	dbClose func() error
}

// NewApp opens the database and wires services. Credentials resolve from the
// OS keyring first, then from environment variables, so either store works.
func NewApp(dbPath string, logLevel logger.LogLevel, opts ...services.DispatchOption) (*App, error) {
	db, err := database.Init(database.Config{
		Path:     dbPath,
		LogLevel: logLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	app := &App{DB: db, Keyring: secrets.NewKeyringResolver()}
	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	resolver := secrets.Chain{app.Keyring, secrets.NewEnvResolver()}
	app.Services = services.NewServices(db, resolver, llm.NewOpenAITransport(), opts...)
	return app, nil
}

// Close releases the database connection pool.
func (a *App) Close() error {
	if a.dbClose == nil {
		return nil
	}
	err := a.dbClose()
	a.dbClose = nil
	return err
}
