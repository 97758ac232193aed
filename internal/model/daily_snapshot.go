package model

import (
	"time"
)

// DailySnapshot 每日汇总快照，(account_id, snapshot_date) 唯一
// 同一天重复同步为覆盖写（upsert），历史记录永久保留
// 只允许批量同步任务写入
type DailySnapshot struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AccountID    int64     `gorm:"uniqueIndex:idx_account_date;not null" json:"account_id"`
	SnapshotDate time.Time `gorm:"type:date;uniqueIndex:idx_account_date;not null" json:"snapshot_date"`

	SpendTotal    float64 `gorm:"type:decimal(14,2);default:0" json:"spend_total"`
	AdCount       int     `gorm:"default:0" json:"ad_count"`
	CampaignCount int     `gorm:"default:0" json:"campaign_count"`

	// 当日账户状态留档
	HealthStatus  string `gorm:"size:30" json:"health_status"`
	BillingStatus string `gorm:"size:30" json:"billing_status"`
}

func (DailySnapshot) TableName() string {
	return "daily_snapshots"
}
