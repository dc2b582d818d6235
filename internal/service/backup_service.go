package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-inventory-ledger/internal/config"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	backupPrefix  = "inventory_backup_"
	backupExt     = ".db"
	backupMetaExt = ".meta.json"

	BackupReasonManual        = "manual"
	BackupReasonScheduled     = "scheduled"
	BackupReasonBeforeRestore = "before_restore"
)

// BackupInfo describes one snapshot file and its metadata sidecar.
type BackupInfo struct {
	FileName  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Reason    string    `json:"reason"`
	Source    string    `json:"source,omitempty"`
}

type BackupService interface {
	Create(ctx context.Context, reason string) (*BackupInfo, error)
	List() ([]BackupInfo, error)
	Restore(ctx context.Context, fileName string) (*BackupInfo, error)
	Delete(fileName string) error
	Cleanup(days int) (int, error)
}

type backupService struct {
	db     *gorm.DB
	driver string
	source string
	dir    string
	now    func() time.Time
}

func NewBackupService(db *gorm.DB, dbCfg config.DatabaseConfig, dir string) BackupService {
	return &backupService{
		db:     db,
		driver: dbCfg.Driver,
		source: dbCfg.SQLitePath,
		dir:    dir,
		now:    time.Now,
	}
}

func (s *backupService) supported() error {
	if s.driver != config.DriverSQLite {
		return InvalidInput("backups are supported only for the sqlite store")
	}
	return nil
}

// Create snapshots the live database with VACUUM INTO, which is consistent
// even while other connections write.
func (s *backupService) Create(ctx context.Context, reason string) (*BackupInfo, error) {
	if err := s.supported(); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = BackupReasonManual
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, StoreFailure(errors.Wrapf(err, "create backup directory %s", s.dir))
	}

	now := s.now()
	name := s.freeName(now)
	target := filepath.Join(s.dir, name)

	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", target).Error; err != nil {
		zap.L().Error("backup failed", zap.String("target", target), zap.Error(err))
		return nil, StoreFailure(errors.Wrap(err, "vacuum into backup"))
	}

	stat, err := os.Stat(target)
	if err != nil {
		return nil, StoreFailure(errors.Wrap(err, "stat backup"))
	}
	info := &BackupInfo{
		FileName:  name,
		Size:      stat.Size(),
		CreatedAt: now,
		Reason:    reason,
		Source:    s.source,
	}
	if err := s.writeMeta(info); err != nil {
		// the snapshot itself is usable without its sidecar
		zap.L().Warn("backup metadata not written", zap.String("file", name), zap.Error(err))
	}

	zap.L().Info("backup created",
		zap.String("file", name),
		zap.String("reason", reason),
		zap.Int64("size", info.Size))
	return info, nil
}

// freeName picks the timestamped file name, suffixing it when a backup was
// already taken within the same second.
func (s *backupService) freeName(now time.Time) string {
	base := backupPrefix + now.Format("2006-01-02_150405")
	name := base + backupExt
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.dir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s_%d%s", base, i, backupExt)
	}
}

func (s *backupService) writeMeta(info *BackupInfo) error {
	raw, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, info.FileName+backupMetaExt), raw, 0o644)
}

func (s *backupService) readMeta(name string) (*BackupInfo, bool) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name+backupMetaExt))
	if err != nil {
		return nil, false
	}
	var info BackupInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, false
	}
	return &info, true
}

// List returns the snapshots newest first. Files without a sidecar are
// reported with their modification time.
func (s *backupService) List() ([]BackupInfo, error) {
	if err := s.supported(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, StoreFailure(errors.Wrap(err, "read backup directory"))
	}

	backups := []BackupInfo{}
	for _, e := range entries {
		if e.IsDir() || !isBackupName(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := BackupInfo{FileName: e.Name(), CreatedAt: fi.ModTime(), Reason: BackupReasonManual}
		if meta, ok := s.readMeta(e.Name()); ok {
			info = *meta
		}
		info.Size = fi.Size()
		backups = append(backups, info)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore replaces the database file with the named snapshot after taking a
// safety backup. The server must be restarted to pick up the restored file.
func (s *backupService) Restore(ctx context.Context, fileName string) (*BackupInfo, error) {
	if err := s.supported(); err != nil {
		return nil, err
	}
	if err := validateBackupName(fileName); err != nil {
		return nil, err
	}
	src := filepath.Join(s.dir, fileName)
	if _, err := os.Stat(src); err != nil {
		return nil, NotFound("backup %s not found", fileName)
	}

	safety, err := s.Create(ctx, BackupReasonBeforeRestore)
	if err != nil {
		return nil, err
	}

	if err := replaceFile(src, s.source); err != nil {
		zap.L().Error("restore failed", zap.String("file", fileName), zap.Error(err))
		return nil, StoreFailure(errors.Wrapf(err, "restore %s", fileName))
	}

	zap.L().Warn("database restored from backup; restart required",
		zap.String("file", fileName),
		zap.String("safety_backup", safety.FileName))
	return safety, nil
}

// replaceFile copies src next to dst and renames it into place so dst is
// never left half written.
func replaceFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".restore-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dst)
}

func (s *backupService) Delete(fileName string) error {
	if err := s.supported(); err != nil {
		return err
	}
	if err := validateBackupName(fileName); err != nil {
		return err
	}
	path := filepath.Join(s.dir, fileName)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return NotFound("backup %s not found", fileName)
		}
		return StoreFailure(errors.Wrapf(err, "delete backup %s", fileName))
	}
	_ = os.Remove(path + backupMetaExt)
	zap.L().Info("backup deleted", zap.String("file", fileName))
	return nil
}

// Cleanup removes snapshots older than days and reports how many were deleted.
func (s *backupService) Cleanup(days int) (int, error) {
	if err := s.supported(); err != nil {
		return 0, err
	}
	if days <= 0 {
		return 0, InvalidInput("days must be positive")
	}
	backups, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().AddDate(0, 0, -days)
	removed := 0
	for _, b := range backups {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.Delete(b.FileName); err != nil {
			zap.L().Warn("backup cleanup skipped file", zap.String("file", b.FileName), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		zap.L().Info("old backups removed", zap.Int("count", removed), zap.Int("days", days))
	}
	return removed, nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupExt)
}

func validateBackupName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || !isBackupName(name) {
		return InvalidInput("invalid backup file name %q", name)
	}
	return nil
}
