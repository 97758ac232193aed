package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"magiops_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ConnectionRepository 授权凭证仓储接口
// 凭证/状态字段只允许 TokenService 通过本仓储写入
type ConnectionRepository interface {
	Create(ctx context.Context, conn *model.Connection) error
	GetByID(ctx context.Context, id int64) (*model.Connection, error)
	GetByIDWithAccounts(ctx context.Context, id int64) (*model.Connection, error)
	List(ctx context.Context, filter ConnectionFilter) ([]model.Connection, int64, error)
	UpdateLabel(ctx context.Context, id int64, label string) error
	Delete(ctx context.Context, id int64) error

	// Token 生命周期（写入保证单次落库）
	UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	UpdateTokenFailure(ctx context.Context, id int64, status, message string) error
	FindExpiring(ctx context.Context, within time.Duration) ([]model.Connection, error)

	// 批量同步结果（每组一次）
	UpdateSyncResult(ctx context.Context, id int64, syncedAt time.Time, syncErr string) error
}

// ==================== 过滤条件 ====================

// ConnectionFilter 凭证过滤条件
type ConnectionFilter struct {
	Status   string // 空表示不筛选
	Label    string
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type connectionRepo struct {
	db *gorm.DB
}

// NewConnectionRepository 创建凭证仓储
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepo{db: db}
}

func (r *connectionRepo) Create(ctx context.Context, conn *model.Connection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

func (r *connectionRepo) GetByID(ctx context.Context, id int64) (*model.Connection, error) {
	var conn model.Connection
	if err := r.db.WithContext(ctx).First(&conn, id).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepo) GetByIDWithAccounts(ctx context.Context, id int64) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.WithContext(ctx).
		Preload("Accounts").
		First(&conn, id).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepo) List(ctx context.Context, filter ConnectionFilter) ([]model.Connection, int64, error) {
	var conns []model.Connection
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Connection{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Label != "" {
		query = query.Where("label LIKE ?", "%"+filter.Label+"%")
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

	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&conns).Error; err != nil {
		return nil, 0, err
	}
	return conns, total, nil
}

func (r *connectionRepo) UpdateLabel(ctx context.Context, id int64, label string) error {
	return r.db.WithContext(ctx).Model(&model.Connection{}).Where("id = ?", id).Update("label", label).Error
}

// Delete 用户主动断开授权（软删除，同时解绑账户）
func (r *connectionRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.AdAccount{}).
			Where("connection_id = ?", id).
			Update("connection_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Connection{}, id).Error
	})
}

// UpdateToken 刷新成功：新凭证 + 状态复位 + 清空错误，单条 UPDATE
func (r *connectionRepo) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":     accessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": expiresAt,
			"status":           model.ConnStatusActive,
			"last_sync_error":  "",
		}).Error
}

// UpdateTokenFailure 刷新失败：记录分类后的状态与错误信息
func (r *connectionRepo) UpdateTokenFailure(ctx context.Context, id int64, status, message string) error {
	return r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"last_sync_error": message,
		}).Error
}

// FindExpiring 查找即将过期或等待重试的凭证（Token 保活任务用）
func (r *connectionRepo) FindExpiring(ctx context.Context, within time.Duration) ([]model.Connection, error) {
	var conns []model.Connection
	deadline := time.Now().Add(within)
	err := r.db.WithContext(ctx).
		Where("token_expires_at <= ? OR status = ?", deadline, model.ConnStatusNeedsRefresh).
		Find(&conns).Error
	return conns, err
}

func (r *connectionRepo) UpdateSyncResult(ctx context.Context, id int64, syncedAt time.Time, syncErr string) error {
	return r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_sync_at":    syncedAt,
			"last_sync_error": syncErr,
		}).Error
}
