package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the inventory server.
type Config struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Backup   BackupConfig   `yaml:"backup"`
	Logger   LoggerConfig   `yaml:"logger"`

	// Days of activity log kept by the retention job
	ActivityRetentionDays int `yaml:"activity_retention_days"`

	// Directory of the built single-page front end. Empty disables static serving.
	StaticDir string `yaml:"static_dir"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres | sqlite
	URL        string `yaml:"url"`
	Host       string `yaml:"host"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Port       string `yaml:"port"`
	SQLitePath string `yaml:"sqlite_path"`
	Debug      bool   `yaml:"debug"`
}

type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	TokenTTLHours     int    `yaml:"token_ttl_hours"`
	SeedAdminPassword string `yaml:"seed_admin_password"`
}

type BackupConfig struct {
	Dir           string `yaml:"dir"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env:  "development",
		Port: "5000",
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/inventory.db",
		},
		Auth: AuthConfig{
			JWTSecret:         "inventory-secret-key-change-in-production",
			TokenTTLHours:     24 * 7,
			SeedAdminPassword: "admin123",
		},
		Backup: BackupConfig{
			Dir:           "backups",
			Schedule:      "@daily",
			RetentionDays: 30,
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		ActivityRetentionDays: 365,
	}
}

// Load reads configuration with this precedence: environment > CONFIG_FILE (yaml) > .env > defaults.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.Port, "PORT")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.SQLitePath, "SQLITE_PATH")
	setBool(&cfg.Database.Debug, "DB_DEBUG")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setInt(&cfg.Auth.TokenTTLHours, "JWT_TTL_HOURS")
	setString(&cfg.Auth.SeedAdminPassword, "SEED_ADMIN_PASSWORD")

	setString(&cfg.Backup.Dir, "BACKUP_DIR")
	setString(&cfg.Backup.Schedule, "BACKUP_SCHEDULE")
	setInt(&cfg.Backup.RetentionDays, "BACKUP_RETENTION_DAYS")

	setString(&cfg.Logger.Level, "LOG_LEVEL")
	setString(&cfg.Logger.File, "LOG_FILE")

	setInt(&cfg.ActivityRetentionDays, "ACTIVITY_RETENTION_DAYS")
	setString(&cfg.StaticDir, "STATIC_DIR")
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverSQLite {
		return fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", c.Database.Driver)
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.Auth.TokenTTLHours)
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS cannot be negative")
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// PostgresDSN builds the DSN from DATABASE_URL or the individual DB_* values.
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	port := d.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, port,
	)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			*dst = b
		}
	}
}
