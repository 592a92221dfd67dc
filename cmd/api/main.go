// Package main is the entry point for the case service.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "atendimento",
	Short:         "Conselho Tutelar case-management service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		zapCfg := zap.NewProductionConfig()
		if verbose || strings.EqualFold(cfg.LogLevel, "debug") {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and normalize legacy status values",
	Long: `Applies the embedded SQL schema for DB_DRIVER (postgres or mysql).
SQLite databases are migrated from the models instead. Legacy status
spellings are then rewritten to the canonical values.`,
	RunE: runMigrate,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Bootstraps an Administrador account so the first login is possible.

Example:
  atendimento create-admin --nome "Maria Silva" --login maria@conselho.gov.br --senha 's3nh@forte'`,
	RunE: runCreateAdmin,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	createAdminCmd.Flags().StringVar(&adminName, "nome", "", "Full name (required)")
	createAdminCmd.Flags().StringVar(&adminLogin, "login", "", "Login e-mail (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "senha", "", "Initial password (required)")
	_ = createAdminCmd.MarkFlagRequired("nome")
	_ = createAdminCmd.MarkFlagRequired("login")
	_ = createAdminCmd.MarkFlagRequired("senha")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

// @title Conselho Tutelar Case Service API
// @version 1.0
// @description Case intake, user administration and dashboard for a Conselho Tutelar office
// @host localhost:3001
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
