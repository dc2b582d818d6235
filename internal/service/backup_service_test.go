package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupBackupService(t *testing.T) (*backupService, *gorm.DB) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "inventory.db")

	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(dbPath)), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := db.AutoMigrate(model.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := NewBackupService(db, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: dbPath}, filepath.Join(dir, "backups")).(*backupService)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local) }
	return svc, db
}

func TestBackupCreateAndList(t *testing.T) {
	svc, db := setupBackupService(t)
	seedProduct(t, db, "P000001", "Bolt")

	first, err := svc.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.FileName != "inventory_backup_2025-03-01_093000.db" {
		t.Fatalf("unexpected name %s", first.FileName)
	}
	if first.Reason != BackupReasonManual || first.Size == 0 {
		t.Fatalf("unexpected info %+v", first)
	}

	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local) }
	second, err := svc.Create(context.Background(), BackupReasonScheduled)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.FileName == first.FileName {
		t.Fatal("backups in the same second must not share a file")
	}

	svc.now = func() time.Time { return time.Date(2025, 3, 2, 9, 30, 0, 0, time.Local) }
	third, err := svc.Create(context.Background(), BackupReasonScheduled)
	if err != nil {
		t.Fatalf("create third: %v", err)
	}

	list, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(list))
	}
	if list[0].FileName != third.FileName {
		t.Fatalf("newest backup should come first, got %s", list[0].FileName)
	}
	if list[0].Reason != BackupReasonScheduled {
		t.Fatalf("metadata not read back: %+v", list[0])
	}

	// the snapshot is a working database
	snap, err := gorm.Open(sqlite.Open(filepath.Join(svc.dir, first.FileName)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer database.Close(snap)
	var n int64
	if err := snap.Model(&model.Product{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("snapshot should hold 1 product, got %d (%v)", n, err)
	}
}

func TestBackupRestoreTakesSafetyCopy(t *testing.T) {
	svc, _ := setupBackupService(t)
	b, err := svc.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local) }
	safety, err := svc.Restore(context.Background(), b.FileName)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if safety.Reason != BackupReasonBeforeRestore {
		t.Fatalf("safety backup reason %s", safety.Reason)
	}

	want, _ := os.ReadFile(filepath.Join(svc.dir, b.FileName))
	got, _ := os.ReadFile(svc.source)
	if !bytes.Equal(want, got) {
		t.Fatal("database file does not match the restored backup")
	}

	if _, err := svc.Restore(context.Background(), "inventory_backup_missing.db"); !IsKind(err, KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestBackupRejectsUnsafeNames(t *testing.T) {
	svc, _ := setupBackupService(t)
	for _, name := range []string{"", "../inventory.db", "backups/inventory_backup_x.db", "notes.txt", `..\x.db`} {
		if err := svc.Delete(name); !IsKind(err, KindInvalidInput) {
			t.Errorf("%q: expected INVALID_INPUT, got %v", name, err)
		}
	}
	if err := svc.Delete("inventory_backup_2020-01-01_000000.db"); !IsKind(err, KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestBackupCleanupByAge(t *testing.T) {
	svc, _ := setupBackupService(t)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local) }
	old, err := svc.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("create old: %v", err)
	}
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local) }
	recent, err := svc.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("create recent: %v", err)
	}

	removed, err := svc.Cleanup(30)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(svc.dir, old.FileName)); !os.IsNotExist(err) {
		t.Fatal("old backup should be gone")
	}
	if _, err := os.Stat(filepath.Join(svc.dir, old.FileName+backupMetaExt)); !os.IsNotExist(err) {
		t.Fatal("old metadata should be gone")
	}
	if _, err := os.Stat(filepath.Join(svc.dir, recent.FileName)); err != nil {
		t.Fatal("recent backup should be kept")
	}
	if _, err := svc.Cleanup(0); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for zero days, got %v", err)
	}
}

func TestBackupRequiresSQLite(t *testing.T) {
	svc := NewBackupService(nil, config.DatabaseConfig{Driver: config.DriverPostgres}, t.TempDir())
	if _, err := svc.Create(context.Background(), ""); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if _, err := svc.List(); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}
