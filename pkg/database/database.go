package database

import (
	"os"
	"path/filepath"
	"time"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDB opens the configured store. Unique-constraint violations are
// translated to gorm.ErrDuplicatedKey for both drivers.
func ConnectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.Debug {
		level = gormlogger.Info
	}

	newLogger := gormlogger.New(
		logger.StdLog(),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:         newLogger,
		PrepareStmt:    false,
		TranslateError: true,
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.PostgresDSN(),
			PreferSimpleProtocol: true, // no implicit prepared statements behind poolers
		}), gormConfig)
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres")
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "postgres pool")
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)

		zap.L().Info("database connection established", zap.String("driver", cfg.Driver))
		return db, nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "create database directory %s", dir)
			}
		}

		db, err := gorm.Open(sqlite.Open(SQLiteDSN(cfg.SQLitePath)), gormConfig)
		if err != nil {
			return nil, errors.Wrapf(err, "open sqlite %s", cfg.SQLitePath)
		}

		// sqlite serializes writers; one connection keeps units of work from
		// tripping over SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "sqlite pool")
		}
		sqlDB.SetMaxOpenConns(1)

		zap.L().Info("database connection established",
			zap.String("driver", cfg.Driver),
			zap.String("path", cfg.SQLitePath),
		)
		return db, nil
	}

	return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
}

// SQLiteDSN enables foreign keys and a busy timeout on a file database.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Migrate creates or updates the schema of the given tables.
func Migrate(db *gorm.DB, tables ...interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "migrate")
				return
			}
			err = errors.Errorf("migrate: %v", r)
		}
	}()
	return errors.Wrap(db.AutoMigrate(tables...), "migrate")
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
