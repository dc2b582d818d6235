package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]ActivityLogView, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityLogFilter narrows List. StartDate and EndDate are inclusive YYYY-MM-DD days.
type ActivityLogFilter struct {
	UserID     *uint
	ActionType model.ActionType
	Entity     string
	RecordID   *uint
	StartDate  string
	EndDate    string
	Limit      int
	Offset     int
}

type ActivityLogView struct {
	model.ActivityLog
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
}

type activityLogRepo struct {
	db *gorm.DB
}

func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db}
}

func (r *activityLogRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepo) filtered(ctx context.Context, f ActivityLogFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Table("activity_logs al")
	if f.UserID != nil {
		q = q.Where("al.user_id = ?", *f.UserID)
	}
	if f.ActionType != "" {
		q = q.Where("al.action_type = ?", string(f.ActionType))
	}
	if f.Entity != "" {
		q = q.Where("al.table_name = ?", f.Entity)
	}
	if f.RecordID != nil {
		q = q.Where("al.record_id = ?", *f.RecordID)
	}
	if f.StartDate != "" {
		if start, err := time.ParseInLocation(model.DateLayout, f.StartDate, time.Local); err == nil {
			q = q.Where("al.created_at >= ?", start)
		}
	}
	if f.EndDate != "" {
		if end, err := time.ParseInLocation(model.DateLayout, f.EndDate, time.Local); err == nil {
			q = q.Where("al.created_at < ?", end.AddDate(0, 0, 1))
		}
	}
	return q
}

// List returns one page of matching logs, newest first, and the total match count.
func (r *activityLogRepo) List(ctx context.Context, f ActivityLogFilter) ([]ActivityLogView, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	logs := []ActivityLogView{}
	err := r.filtered(ctx, f).
		Select("al.*, u.username, u.full_name").
		Joins("LEFT JOIN users u ON u.id = al.user_id").
		Order("al.created_at DESC, al.id DESC").
		Limit(limit).
		Offset(f.Offset).
		Scan(&logs).Error
	return logs, total, err
}

func (r *activityLogRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.ActivityLog{})
	return res.RowsAffected, res.Error
}
