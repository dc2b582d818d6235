package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %q", cfg.Database.Driver)
	}
	if cfg.Auth.TokenTTLHours != 168 {
		t.Fatalf("expected 7 day token ttl, got %d", cfg.Auth.TokenTTLHours)
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Fatalf("expected 30 day backup retention, got %d", cfg.Backup.RetentionDays)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("port: \"9000\"\ndatabase:\n  driver: postgres\n  url: postgres://u:p@db/inv\nbackup:\n  retention_days: 7\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_DRIVER", "")
	t.Setenv("BACKUP_RETENTION_DAYS", "14")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("expected postgres from file, got %q", cfg.Database.Driver)
	}
	if cfg.Database.PostgresDSN() != "postgres://u:p@db/inv" {
		t.Fatalf("unexpected dsn %q", cfg.Database.PostgresDSN())
	}
	if cfg.Backup.RetentionDays != 14 {
		t.Fatalf("expected env to override retention, got %d", cfg.Backup.RetentionDays)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
