package database

import (
	"strings"
	"testing"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/conselho-tutelar/atendimento-service/internal/database/migrations"
	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"go.uber.org/zap"
)

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "conselho",
		DBPort: "5432", DBSSLMode: "disable", DBTimezone: "UTC",
	}
	want := "host=db user=u password=p dbname=conselho port=5432 sslmode=disable TimeZone=UTC"
	if got := PostgresDSN(cfg); got != want {
		t.Errorf("PostgresDSN() = %q, want %q", got, want)
	}

	cfg.DatabaseURL = "postgres://x"
	if got := PostgresDSN(cfg); got != "postgres://x" {
		t.Errorf("PostgresDSN() should prefer DATABASE_URL, got %q", got)
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "3306", DBUser: "root", DBPassword: "secret", DBName: "conselho"}

	dsn, err := MySQLDSN(cfg, true)
	if err != nil {
		t.Fatalf("MySQLDSN() error = %v", err)
	}
	for _, part := range []string{"root:secret@tcp(db:3306)/conselho", "parseTime=true", "multiStatements=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("MySQLDSN() = %q, missing %q", dsn, part)
		}
	}
}

func TestMySQLDSN_InvalidURL(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "not a dsn"}
	if _, err := MySQLDSN(cfg, false); err == nil {
		t.Error("MySQLDSN() should reject a malformed DATABASE_URL")
	}
}

func TestConnect_SQLiteAutoMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, DatabaseURL: "file::memory:?_foreign_keys=on"}

	db, err := Connect(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	for _, table := range []interface{}{&models.User{}, &models.Child{}, &models.Address{}, &models.Case{}, &models.Guardian{}} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table for %T was not created", table)
		}
	}
}

func TestDialector_Unsupported(t *testing.T) {
	if _, err := Dialector(&config.Config{DBDriver: "oracle"}); err == nil {
		t.Error("Dialector() should reject unknown drivers")
	}
}

func TestEmbeddedSchemas(t *testing.T) {
	for _, name := range []string{"postgres.sql", "mysql.sql"} {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		for _, table := range []string{"usuario", "crianca", "endereco", "caso", "responsavel"} {
			if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table) {
				t.Errorf("%s does not create %s", name, table)
			}
		}
	}
}
