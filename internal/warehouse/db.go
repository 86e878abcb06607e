package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/shopquery/shopquery/internal/config"
)

// Open connects to the configured warehouse engine and verifies the
// connection with a bounded ping. The caller owns the returned handle.
func Open(ctx context.Context, cfg config.WarehouseConfig) (*sql.DB, error) {
	driver, err := driverName(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if cfg.Engine == "postgres" && cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse dsn is required for postgres")
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open warehouse db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping warehouse db: %w", err)
	}

	return db, nil
}

// SchemaName is the information_schema namespace the engine keeps user
// tables in.
func SchemaName(engine string) string {
	if engine == "duckdb" {
		return "main"
	}
	return "public"
}

func driverName(engine string) (string, error) {
	switch engine {
	case "postgres":
		return "pgx", nil
	case "duckdb":
		return "duckdb", nil
	default:
		return "", fmt.Errorf("unsupported warehouse engine %q", engine)
	}
}
