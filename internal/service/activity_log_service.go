package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ActivityEntry describes one user action to be recorded.
type ActivityEntry struct {
	UserID     *uint
	ActionType model.ActionType
	Entity     string
	RecordID   *uint
	OldData    interface{}
	NewData    interface{}
	IPAddress  string
	UserAgent  string
}

type ActivityLogPage struct {
	Logs  []repository.ActivityLogView `json:"logs"`
	Total int64                        `json:"total"`
}

type ActivityLogService interface {
	Record(ctx context.Context, entry ActivityEntry)
	List(ctx context.Context, filter repository.ActivityLogFilter) (*ActivityLogPage, error)
	Purge(ctx context.Context, olderThanDays int) (int64, error)
}

type activityLogService struct {
	repo repository.ActivityLogRepository
	now  func() time.Time
}

func NewActivityLogService(repo repository.ActivityLogRepository) ActivityLogService {
	return &activityLogService{repo: repo, now: time.Now}
}

// Record stores the entry. Failures are logged and never reach the caller.
func (s *activityLogService) Record(ctx context.Context, entry ActivityEntry) {
	log := &model.ActivityLog{
		UserID:     entry.UserID,
		ActionType: entry.ActionType,
		Entity:     entry.Entity,
		RecordID:   entry.RecordID,
		OldData:    encodeJSON(entry.OldData),
		NewData:    encodeJSON(entry.NewData),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		zap.L().Error("activity log write failed",
			zap.String("action", string(entry.ActionType)),
			zap.String("table", entry.Entity),
			zap.Error(err))
	}
}

func (s *activityLogService) List(ctx context.Context, filter repository.ActivityLogFilter) (*ActivityLogPage, error) {
	if filter.StartDate != "" && !validator.IsDate(filter.StartDate) {
		return nil, InvalidInput("start_date must be YYYY-MM-DD")
	}
	if filter.EndDate != "" && !validator.IsDate(filter.EndDate) {
		return nil, InvalidInput("end_date must be YYYY-MM-DD")
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, StoreFailure(err)
	}
	return &ActivityLogPage{Logs: logs, Total: total}, nil
}

// Purge deletes entries older than the given number of days.
func (s *activityLogService) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, InvalidInput("retention days must be positive")
	}
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	n, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, StoreFailure(err)
	}
	return n, nil
}

func encodeJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("activity payload not serializable", zap.Error(err))
		return nil
	}
	return datatypes.JSON(raw)
}
