package config

import (
	"PetAdoptAPI/internal/repository/schema"
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
)

func InitDB(cfg *AppConfig) *entsql.Driver {
	db, err := sql.Open("postgres", cfg.DBConnectionString())
	if err != nil {
		slog.Error("Failed opening connection to postgres", "error", err)
		os.Exit(1)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		slog.Error("Failed to reach postgres", "error", err, "host", cfg.DBHost)
		os.Exit(1)
	}

	drv := entsql.OpenDB(dialect.Postgres, db)

	if cfg.DBMigrate {
		if err := schema.Migrate(context.Background(), drv); err != nil {
			slog.Error("Failed creating schema resources", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema migrated successfully")
	} else {
		slog.Info("Database migration skipped (DB_MIGRATE=false)")
	}

	slog.Info("Database connected successfully")
	return drv
}
