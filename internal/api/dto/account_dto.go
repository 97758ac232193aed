package dto

import "time"

// ================== AdAccount DTO ==================

// AccountListReq 广告账户列表请求
type AccountListReq struct {
	Page         int    `form:"page,default=1"`
	PageSize     int    `form:"page_size,default=20"`
	Keyword      string `form:"keyword"`
	Region       string `form:"region"`
	SyncStatus   string `form:"sync_status"`
	ConnectionID int64  `form:"connection_id"`
	IdentityID   int64  `form:"identity_id"`
}

// AccountCreateReq 广告账户创建请求
type AccountCreateReq struct {
	ExternalID   string `json:"external_id" binding:"required,max=64"`
	Name         string `json:"name" binding:"required,max=200"`
	Region       string `json:"region" binding:"max=20"`
	ConnectionID *int64 `json:"connection_id"`
	IdentityID   *int64 `json:"identity_id"`
}

// AccountUpdateReq 广告账户更新请求
type AccountUpdateReq struct {
	Name         string `json:"name" binding:"max=200"`
	Region       string `json:"region" binding:"max=20"`
	ConnectionID *int64 `json:"connection_id"`
	IdentityID   *int64 `json:"identity_id"`
}

// AccountResp 广告账户响应
type AccountResp struct {
	ID            int64      `json:"id"`
	ExternalID    string     `json:"external_id"`
	Name          string     `json:"name"`
	Region        string     `json:"region"`
	HealthStatus  string     `json:"health_status"`
	BillingStatus string     `json:"billing_status"`
	SpendTotal    float64    `json:"spend_total"`
	AdCount       int        `json:"ad_count"`
	CampaignCount int        `json:"campaign_count"`
	SyncStatus    string     `json:"sync_status"`
	LastSyncAt    *time.Time `json:"last_sync_at"`
	LastSyncError string     `json:"last_sync_error"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// 关联信息
	ConnectionID    *int64 `json:"connection_id"`
	ConnectionLabel string `json:"connection_label"`
	IdentityID      *int64 `json:"identity_id"`
}

// AccountListResp 广告账户列表响应
type AccountListResp struct {
	Total int64         `json:"total"`
	List  []AccountResp `json:"list"`
}

// ================== 读取降级 DTO ==================

// 缓存降级原因常量
const (
	CacheReasonNoConnection       = "no_connection"
	CacheReasonTokenDecryptFailed = "token_decrypt_failed"
	CacheReasonTokenRefreshFailed = "token_refresh_failed"
	CacheReasonAPIFetchFailed     = "api_fetch_failed"
)

// FallbackResp 实时读取降级响应：实时成功时 from_cache=false，
// 降级时携带缓存数据、缓存龄和降级原因
type FallbackResp struct {
	Data        interface{} `json:"data"`
	FromCache   bool        `json:"from_cache"`
	CacheAgeMs  int64       `json:"cache_age_ms,omitempty"`
	CacheReason string      `json:"cache_reason,omitempty"`
}

// ListingQueryReq 层级列表查询请求（campaign/ad_group/keyword 通用）
type ListingQueryReq struct {
	CampaignID string `form:"campaign_id"`
	AdGroupID  string `form:"ad_group_id"`
}

// ================== 批量同步 DTO ==================

// SyncRunReq 手动触发批量同步请求
type SyncRunReq struct {
	AccountIDs []int64 `json:"account_ids"` // 为空表示全量
}

// SyncDetail 单账户同步明细
type SyncDetail struct {
	AccountID  int64  `json:"account_id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"` // synced / error / skipped
	Error      string `json:"error,omitempty"`
}

// BatchSyncResp 批量同步结果响应
type BatchSyncResp struct {
	Synced  int          `json:"synced"`
	Errors  int          `json:"errors"`
	Skipped int          `json:"skipped"`
	Details []SyncDetail `json:"details"`
}

// ================== DailySnapshot DTO ==================

// SnapshotListReq 日快照查询请求
type SnapshotListReq struct {
	From string `form:"from"` // YYYY-MM-DD
	To   string `form:"to"`   // YYYY-MM-DD
}

// SnapshotResp 日快照响应
type SnapshotResp struct {
	ID            int64     `json:"id"`
	AccountID     int64     `json:"account_id"`
	SnapshotDate  time.Time `json:"snapshot_date"`
	SpendTotal    float64   `json:"spend_total"`
	AdCount       int       `json:"ad_count"`
	CampaignCount int       `json:"campaign_count"`
	HealthStatus  string    `json:"health_status"`
	BillingStatus string    `json:"billing_status"`
}

// SnapshotListResp 日快照列表响应
type SnapshotListResp struct {
	Total int64          `json:"total"`
	List  []SnapshotResp `json:"list"`
}
