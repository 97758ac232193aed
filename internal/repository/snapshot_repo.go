package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"magiops_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// SnapshotRepository 每日快照仓储接口
type SnapshotRepository interface {
	// Upsert 按 (account_id, snapshot_date) 覆盖写，同日重跑幂等
	Upsert(ctx context.Context, snap *model.DailySnapshot) error
	GetByAccountAndDate(ctx context.Context, accountID int64, date time.Time) (*model.DailySnapshot, error)
	ListByAccount(ctx context.Context, accountID int64, from, to time.Time) ([]model.DailySnapshot, error)
}

// ==================== 仓储实现 ====================

type snapshotRepo struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Upsert(ctx context.Context, snap *model.DailySnapshot) error {
	snap.SnapshotDate = truncateToDate(snap.SnapshotDate)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"spend_total", "ad_count", "campaign_count",
				"health_status", "billing_status", "updated_at",
			}),
		}).
		Create(snap).Error
}

func (r *snapshotRepo) GetByAccountAndDate(ctx context.Context, accountID int64, date time.Time) (*model.DailySnapshot, error) {
	var snap model.DailySnapshot
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND snapshot_date = ?", accountID, truncateToDate(date)).
		First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *snapshotRepo) ListByAccount(ctx context.Context, accountID int64, from, to time.Time) ([]model.DailySnapshot, error) {
	var snaps []model.DailySnapshot
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND snapshot_date BETWEEN ? AND ?",
			accountID, truncateToDate(from), truncateToDate(to)).
		Order("snapshot_date ASC").
		Find(&snaps).Error
	return snaps, err
}

// truncateToDate 归一化到零点（UTC），保证唯一索引按自然日生效
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
