package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdAccount 同步状态常量
const (
	SyncStatusIdle    = "idle"    // 未同步
	SyncStatusSyncing = "syncing" // 抓取进行中
	SyncStatusSynced  = "synced"  // 最近一次成功
	SyncStatusError   = "error"   // 最近一次失败
)

// 缓存列表类型
const (
	ListingKindCampaign = "campaign"
	ListingKindAdGroup  = "ad_group"
	ListingKindKeyword  = "keyword"
)

// AdAccount 一个外部托管的广告账户
// 指标与缓存字段只允许批量同步任务和读路径的 live 分支写入
type AdAccount struct {
	BaseModel
	AuditMixin

	// 1. 核心身份
	ExternalID string `gorm:"size:64;uniqueIndex;comment:广告平台侧客户ID"`
	Name       string `gorm:"size:100"`
	Region     string `gorm:"size:20;comment:投放地区"`

	// 2. 凭证绑定（可为空，未绑定的账户不参与批量同步）
	ConnectionID *int64      `gorm:"index"`
	Connection   *Connection `gorm:"foreignKey:ConnectionID"`

	// 3. 账户健康度
	HealthStatus  string `gorm:"size:30;comment:平台侧账户状态"`
	BillingStatus string `gorm:"size:30;comment:结算状态"`

	// 4. 最近一次成功抓取的指标（last-known-good）
	SpendTotal    float64 `gorm:"type:decimal(14,2);default:0"` // 累计消耗
	AdCount       int     `gorm:"default:0"`
	CampaignCount int     `gorm:"default:0"`

	// 5. 同步状态
	SyncStatus    string     `gorm:"index;size:20;default:'idle'"`
	LastSyncAt    *time.Time `gorm:"comment:最后成功同步时间"`
	LastSyncError string     `gorm:"type:text"`

	// 6. 离线列表缓存（各自独立的缓存时间戳）
	CachedCampaigns   datatypes.JSON `gorm:"comment:campaign 列表缓存"`
	CampaignsCachedAt *time.Time
	CachedAdGroups    datatypes.JSON `gorm:"comment:ad group 列表缓存"`
	AdGroupsCachedAt  *time.Time
	CachedKeywords    datatypes.JSON `gorm:"comment:keyword 列表缓存"`
	KeywordsCachedAt  *time.Time

	// 7. 运营关联
	IdentityID *int64    `gorm:"index;comment:操作该账户的浏览器身份"`
	Identity   *Identity `gorm:"foreignKey:IdentityID"`
}

func (AdAccount) TableName() string {
	return "ad_accounts"
}

// ListingCache 取指定类型的缓存内容与时间戳
func (a *AdAccount) ListingCache(kind string) (datatypes.JSON, *time.Time) {
	switch kind {
	case ListingKindCampaign:
		return a.CachedCampaigns, a.CampaignsCachedAt
	case ListingKindAdGroup:
		return a.CachedAdGroups, a.AdGroupsCachedAt
	case ListingKindKeyword:
		return a.CachedKeywords, a.KeywordsCachedAt
	}
	return nil, nil
}
