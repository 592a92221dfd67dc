package main

import (
	"errors"
	"fmt"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/conselho-tutelar/atendimento-service/internal/database"
	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/repository"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	adminName     string
	adminLogin    string
	adminPassword string
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if cfg.DBDriver != config.DriverSQLite {
		if err := database.ApplySchema(ctx, cfg, logger); err != nil {
			return err
		}
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.DBDriver == config.DriverSQLite {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	}

	normalized, err := repository.NewCaseRepository(db).NormalizeStatuses(ctx)
	if err != nil {
		return err
	}
	logger.Info("migration complete", zap.String("driver", cfg.DBDriver), zap.Int64("statuses_normalized", normalized))
	return nil
}

// runCreateAdmin goes through UserService so the account gets the same
// validation and hashing as one registered over HTTP. No session store is
// needed since a new account has no sessions to revoke.
func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.DBDriver == config.DriverSQLite {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	}

	users := service.NewUserService(repository.NewUserRepository(db), nil, logger)
	user, err := users.Register(cmd.Context(), service.RegisterInput{
		Name:     adminName,
		Login:    adminLogin,
		Password: adminPassword,
		Role:     models.RoleAdministrator,
	})
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return fmt.Errorf("invalid administrator: %s", verr.Message)
		case errors.Is(err, service.ErrDuplicateLogin):
			return fmt.Errorf("login %q is already registered", adminLogin)
		}
		return err
	}

	logger.Info("administrator created", zap.Int64("user_id", user.ID), zap.String("login", user.Login))
	return nil
}
