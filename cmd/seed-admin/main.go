package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/repository"
	"github.com/noah-isme/internship-tracker-api/internal/service"
	"github.com/noah-isme/internship-tracker-api/pkg/config"
	"github.com/noah-isme/internship-tracker-api/pkg/database"
	"github.com/noah-isme/internship-tracker-api/pkg/logger"
)

// seed-admin creates the administrator account from ADMIN_IDENTIFIER,
// ADMIN_PASSWORD and ADMIN_NAME, or resets it when it already exists.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewProfileRepository(db),
		repository.NewSupervisorRepository(db),
		nil,
		nil,
		logr,
		service.VisibilityConfig{LegacyNameMatch: cfg.Scope.LegacyNameMatch},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := users.EnsureAdmin(ctx, cfg.SeedAdmin.Identifier, cfg.SeedAdmin.Password, cfg.SeedAdmin.FullName)
	if err != nil {
		logr.Fatal("seed admin failed", zap.Error(err))
	}
	if created {
		logr.Info("admin created", zap.String("identifier", cfg.SeedAdmin.Identifier))
		return
	}
	logr.Info("admin updated", zap.String("identifier", cfg.SeedAdmin.Identifier))
}
