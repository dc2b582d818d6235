package scheduler

import (
	"context"
	"time"

	"go-inventory-ledger/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config selects the jobs to install. Empty BackupSchedule disables the backup job.
type Config struct {
	BackupSchedule        string
	BackupRetentionDays   int
	ActivityRetentionDays int
}

type Scheduler struct {
	cron     *cron.Cron
	backups  service.BackupService
	activity service.ActivityLogService
	cfg      Config
}

func New(cfg Config, backups service.BackupService, activity service.ActivityLogService) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.Local), cron.WithParser(cronParser)),
		backups:  backups,
		activity: activity,
		cfg:      cfg,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.cfg.BackupSchedule != "" && s.backups != nil {
		if _, err := s.cron.AddFunc(s.cfg.BackupSchedule, s.BackupTask); err != nil {
			return err
		}
	}
	if s.cfg.ActivityRetentionDays > 0 && s.activity != nil {
		if _, err := s.cron.AddFunc("@daily", s.ActivityPurgeTask); err != nil {
			return err
		}
	}
	s.cron.Start()
	zap.L().Info("scheduler started",
		zap.String("backup_schedule", s.cfg.BackupSchedule),
		zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// BackupTask snapshots the store and prunes snapshots past retention.
func (s *Scheduler) BackupTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error("backup job panic: ", err)
		}
	}()

	if _, err := s.backups.Create(context.Background(), service.BackupReasonScheduled); err != nil {
		zap.L().Error("scheduled backup failed", zap.Error(err))
		return
	}
	if s.cfg.BackupRetentionDays > 0 {
		if _, err := s.backups.Cleanup(s.cfg.BackupRetentionDays); err != nil {
			zap.L().Error("backup cleanup failed", zap.Error(err))
		}
	}
}

func (s *Scheduler) ActivityPurgeTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error("activity purge job panic: ", err)
		}
	}()

	n, err := s.activity.Purge(context.Background(), s.cfg.ActivityRetentionDays)
	if err != nil {
		zap.L().Error("activity log purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("activity log purged", zap.Int64("rows", n), zap.Int("days", s.cfg.ActivityRetentionDays))
	}
}
