package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/conselho-tutelar/atendimento-service/internal/database/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ApplySchema runs the embedded schema file for cfg.DBDriver over a plain
// database/sql connection. SQLite has no schema file; callers use
// AutoMigrate for it.
func ApplySchema(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var driverName, dsn string
	switch cfg.DBDriver {
	case config.DriverPostgres:
		driverName, dsn = "postgres", PostgresDSN(cfg)
	case config.DriverMySQL:
		mysqlDSN, err := MySQLDSN(cfg, true)
		if err != nil {
			return err
		}
		driverName, dsn = "mysql", mysqlDSN
	default:
		return fmt.Errorf("no schema file for driver %q", cfg.DBDriver)
	}

	schema, err := migrations.Files.ReadFile(cfg.DBDriver + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close migration connection", zap.Error(err))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	logger.Info("applying schema", zap.String("driver", cfg.DBDriver), zap.Int("bytes", len(schema)))
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
