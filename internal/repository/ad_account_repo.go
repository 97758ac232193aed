package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"magiops_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// AdAccountRepository 广告账户仓储接口
type AdAccountRepository interface {
	Create(ctx context.Context, account *model.AdAccount) error
	GetByID(ctx context.Context, id int64) (*model.AdAccount, error)
	GetByIDWithConnection(ctx context.Context, id int64) (*model.AdAccount, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.AdAccount, error)
	Update(ctx context.Context, account *model.AdAccount) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Archive(ctx context.Context, id int64) error

	// 列表查询
	List(ctx context.Context, filter AccountFilter) ([]model.AdAccount, int64, error)

	// 批量同步输入：未归档且已绑定凭证，按 connection_id 排序便于分组
	ListSyncable(ctx context.Context) ([]model.AdAccount, error)

	// 同步状态与指标（批量任务 / 读路径 live 分支专用）
	UpdateSyncStatus(ctx context.Context, id int64, status, syncErr string) error
	UpdateMetrics(ctx context.Context, id int64, m MetricsUpdate) error
	UpdateListingCache(ctx context.Context, id int64, kind string, data datatypes.JSON, at time.Time) error
}

// ==================== 过滤与更新参数 ====================

// AccountFilter 账户过滤条件
type AccountFilter struct {
	Keyword      string // 名称/外部ID 模糊
	Region       string
	SyncStatus   string
	ConnectionID int64 // 0 表示不筛选
	IdentityID   int64
	Page         int
	PageSize     int
}

// MetricsUpdate 一次成功抓取后的指标落库参数
type MetricsUpdate struct {
	SpendTotal    float64
	AdCount       int
	CampaignCount int
	HealthStatus  string
	BillingStatus string
	SyncedAt      time.Time
}

// ==================== 仓储实现 ====================

type adAccountRepo struct {
	db *gorm.DB
}

// NewAdAccountRepository 创建账户仓储
func NewAdAccountRepository(db *gorm.DB) AdAccountRepository {
	return &adAccountRepo{db: db}
}

func (r *adAccountRepo) Create(ctx context.Context, account *model.AdAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *adAccountRepo) GetByID(ctx context.Context, id int64) (*model.AdAccount, error) {
	var account model.AdAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *adAccountRepo) GetByIDWithConnection(ctx context.Context, id int64) (*model.AdAccount, error) {
	var account model.AdAccount
	err := r.db.WithContext(ctx).
		Preload("Connection").
		First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *adAccountRepo) GetByExternalID(ctx context.Context, externalID string) (*model.AdAccount, error) {
	var account model.AdAccount
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *adAccountRepo) Update(ctx context.Context, account *model.AdAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *adAccountRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.AdAccount{}).Where("id = ?", id).Updates(fields).Error
}

// Archive 归档（软删除），之后不再参与批量同步
func (r *adAccountRepo) Archive(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.AdAccount{}, id).Error
}

func (r *adAccountRepo) List(ctx context.Context, filter AccountFilter) ([]model.AdAccount, int64, error) {
	var accounts []model.AdAccount
	var total int64

	query := r.db.WithContext(ctx).Model(&model.AdAccount{})
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR external_id LIKE ?", kw, kw)
	}
	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.SyncStatus != "" {
		query = query.Where("sync_status = ?", filter.SyncStatus)
	}
	if filter.ConnectionID > 0 {
		query = query.Where("connection_id = ?", filter.ConnectionID)
	}
	if filter.IdentityID > 0 {
		query = query.Where("identity_id = ?", filter.IdentityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// ListSyncable 批量同步的输入集合
// 软删除的归档账户被 gorm 默认过滤；按 connection_id 排序方便上层分组
func (r *adAccountRepo) ListSyncable(ctx context.Context) ([]model.AdAccount, error) {
	var accounts []model.AdAccount
	err := r.db.WithContext(ctx).
		Where("connection_id IS NOT NULL").
		Order("connection_id ASC, id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *adAccountRepo) UpdateSyncStatus(ctx context.Context, id int64, status, syncErr string) error {
	return r.db.WithContext(ctx).
		Model(&model.AdAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sync_status":     status,
			"last_sync_error": syncErr,
		}).Error
}

// UpdateMetrics 成功抓取：指标 + synced 状态 + 清空错误，单条 UPDATE
func (r *adAccountRepo) UpdateMetrics(ctx context.Context, id int64, m MetricsUpdate) error {
	return r.db.WithContext(ctx).
		Model(&model.AdAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"spend_total":     m.SpendTotal,
			"ad_count":        m.AdCount,
			"campaign_count":  m.CampaignCount,
			"health_status":   m.HealthStatus,
			"billing_status":  m.BillingStatus,
			"sync_status":     model.SyncStatusSynced,
			"last_sync_at":    m.SyncedAt,
			"last_sync_error": "",
		}).Error
}

// UpdateListingCache 覆盖写指定类型的离线列表缓存
func (r *adAccountRepo) UpdateListingCache(ctx context.Context, id int64, kind string, data datatypes.JSON, at time.Time) error {
	var fields map[string]interface{}
	switch kind {
	case model.ListingKindCampaign:
		fields = map[string]interface{}{"cached_campaigns": data, "campaigns_cached_at": at}
	case model.ListingKindAdGroup:
		fields = map[string]interface{}{"cached_ad_groups": data, "ad_groups_cached_at": at}
	case model.ListingKindKeyword:
		fields = map[string]interface{}{"cached_keywords": data, "keywords_cached_at": at}
	default:
		return gorm.ErrInvalidField
	}
	return r.db.WithContext(ctx).Model(&model.AdAccount{}).Where("id = ?", id).Updates(fields).Error
}
