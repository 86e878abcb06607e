package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("shopquery-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Warehouse.Engine != "postgres" {
		t.Fatalf("Warehouse.Engine = %q", cfg.Warehouse.Engine)
	}
	if cfg.Knowledge.TopK != 3 {
		t.Fatalf("Knowledge.TopK = %d", cfg.Knowledge.TopK)
	}
	if cfg.Knowledge.CharBudget != 4000 {
		t.Fatalf("Knowledge.CharBudget = %d", cfg.Knowledge.CharBudget)
	}
	if cfg.Executor.RowLimit != 500 {
		t.Fatalf("Executor.RowLimit = %d", cfg.Executor.RowLimit)
	}
	if cfg.Shaper.MaxBarCategories != 8 {
		t.Fatalf("Shaper.MaxBarCategories = %d", cfg.Shaper.MaxBarCategories)
	}
	if cfg.AI.Temperature != 0.1 {
		t.Fatalf("AI.Temperature = %v", cfg.AI.Temperature)
	}
	if len(cfg.Executor.BrowseTables) != 3 {
		t.Fatalf("Executor.BrowseTables = %v", cfg.Executor.BrowseTables)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"SHOPQUERY_PROFILE": "prod"})
	cfg, err := Load("shopquery-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"SHOPQUERY_PROFILE":                "test",
		"SHOPQUERY_HTTP_ADDR":              ":9090",
		"SHOPQUERY_WAREHOUSE_ENGINE":       "duckdb",
		"SHOPQUERY_WAREHOUSE_DSN":          "ecommerce.duckdb",
		"SHOPQUERY_KNOWLEDGE_TOP_K":        "5",
		"SHOPQUERY_AI_TIMEOUT":             "30s",
		"SHOPQUERY_AI_TEMPERATURE":         "0.0",
		"SHOPQUERY_EXECUTOR_ROW_LIMIT":     "100",
		"SHOPQUERY_EXECUTOR_BROWSE_TABLES": "sales_summary, ad_data",
		"SHOPQUERY_LOG_LEVEL":              "error",
	})
	cfg, err := Load("shopquery-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":9090" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Warehouse.Engine != "duckdb" {
		t.Fatalf("Warehouse.Engine = %q", cfg.Warehouse.Engine)
	}
	if cfg.Warehouse.DSN != "ecommerce.duckdb" {
		t.Fatalf("Warehouse.DSN = %q", cfg.Warehouse.DSN)
	}
	if cfg.Knowledge.TopK != 5 {
		t.Fatalf("Knowledge.TopK = %d", cfg.Knowledge.TopK)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("AI.Timeout = %v", cfg.AI.Timeout)
	}
	if cfg.AI.Temperature != 0 {
		t.Fatalf("AI.Temperature = %v", cfg.AI.Temperature)
	}
	if cfg.Executor.RowLimit != 100 {
		t.Fatalf("Executor.RowLimit = %d", cfg.Executor.RowLimit)
	}
	if len(cfg.Executor.BrowseTables) != 2 || cfg.Executor.BrowseTables[1] != "ad_data" {
		t.Fatalf("Executor.BrowseTables = %v", cfg.Executor.BrowseTables)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad profile":   {"SHOPQUERY_PROFILE": "staging"},
		"bad engine":    {"SHOPQUERY_WAREHOUSE_ENGINE": "sqlite"},
		"bad duration":  {"SHOPQUERY_AI_TIMEOUT": "soon"},
		"bad int":       {"SHOPQUERY_EXECUTOR_ROW_LIMIT": "many"},
		"zero row cap":  {"SHOPQUERY_EXECUTOR_ROW_LIMIT": "0"},
		"zero top k":    {"SHOPQUERY_KNOWLEDGE_TOP_K": "0"},
		"bad log level": {"SHOPQUERY_LOG_LEVEL": "loud"},
	}
	for name, env := range cases {
		if _, err := Load("shopquery-api", mapLookup(env)); err == nil {
			t.Errorf("%s: Load() expected error", name)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
