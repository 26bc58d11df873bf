package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.ExternalAccountID != "external-clearing" {
		t.Errorf("ExternalAccountID = %q, want external-clearing", cfg.ExternalAccountID)
	}
	if cfg.ExternalAccountCurrency != "USD" {
		t.Errorf("ExternalAccountCurrency = %q, want USD", cfg.ExternalAccountCurrency)
	}
	if cfg.RelayInterval != time.Second {
		t.Errorf("RelayInterval = %s, want 1s", cfg.RelayInterval)
	}
	if cfg.RelayBatchSize != 100 {
		t.Errorf("RelayBatchSize = %d, want 100", cfg.RelayBatchSize)
	}
	if cfg.RelayEscalateThreshold != 10 {
		t.Errorf("RelayEscalateThreshold = %d, want 10", cfg.RelayEscalateThreshold)
	}
	if cfg.MigrationsPath != "migrations" {
		t.Errorf("MigrationsPath = %q, want migrations", cfg.MigrationsPath)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("EXTERNAL_ACCOUNT_ID", "clearing-eu")
	t.Setenv("EXTERNAL_ACCOUNT_CURRENCY", "EUR")
	t.Setenv("RELAY_INTERVAL", "250ms")
	t.Setenv("DATABASE_MAX_CONNS", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.ExternalAccountID != "clearing-eu" {
		t.Errorf("ExternalAccountID = %q, want clearing-eu", cfg.ExternalAccountID)
	}
	if cfg.ExternalAccountCurrency != "EUR" {
		t.Errorf("ExternalAccountCurrency = %q, want EUR", cfg.ExternalAccountCurrency)
	}
	if cfg.RelayInterval != 250*time.Millisecond {
		t.Errorf("RelayInterval = %s, want 250ms", cfg.RelayInterval)
	}
	if cfg.DatabaseMaxConns != 50 {
		t.Errorf("DatabaseMaxConns = %d, want 50", cfg.DatabaseMaxConns)
	}
}
