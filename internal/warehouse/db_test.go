package warehouse

import (
	"context"
	"testing"

	"github.com/shopquery/shopquery/internal/config"
)

func TestOpenRejectsUnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), config.WarehouseConfig{Engine: "sqlite", DSN: "x"})
	if err == nil {
		t.Fatal("expected error for unsupported engine")
	}
}

func TestOpenRequiresPostgresDSN(t *testing.T) {
	_, err := Open(context.Background(), config.WarehouseConfig{Engine: "postgres"})
	if err == nil {
		t.Fatal("expected error for missing dsn")
	}
}

func TestSchemaName(t *testing.T) {
	if got := SchemaName("duckdb"); got != "main" {
		t.Fatalf("duckdb schema = %q", got)
	}
	if got := SchemaName("postgres"); got != "public" {
		t.Fatalf("postgres schema = %q", got)
	}
}
