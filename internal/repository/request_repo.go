package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"magiops_v1_202608/internal/model"
)

// RequestRepository 运营工单仓储接口
type RequestRepository interface {
	Create(ctx context.Context, req *model.OpsRequest) error
	GetByID(ctx context.Context, id int64) (*model.OpsRequest, error)
	GetByTraceID(ctx context.Context, traceID string) (*model.OpsRequest, error)
	Update(ctx context.Context, req *model.OpsRequest) error
	UpdateStatus(ctx context.Context, id int64, status, resolution string, operator string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter RequestFilter) ([]model.OpsRequest, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// RequestFilter 工单过滤条件
type RequestFilter struct {
	Type       string
	Status     string
	AssigneeID int64
	AccountID  int64
	Keyword    string
	Page       int
	PageSize   int
}

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepository 创建工单仓储
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) Create(ctx context.Context, req *model.OpsRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepo) GetByID(ctx context.Context, id int64) (*model.OpsRequest, error) {
	var req model.OpsRequest
	if err := r.db.WithContext(ctx).Preload("Assignee").First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) GetByTraceID(ctx context.Context, traceID string) (*model.OpsRequest, error) {
	var req model.OpsRequest
	if err := r.db.WithContext(ctx).Preload("Assignee").Where("trace_id = ?", traceID).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) Update(ctx context.Context, req *model.OpsRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// UpdateStatus 更新工单状态并记录处理结论
func (r *requestRepo) UpdateStatus(ctx context.Context, id int64, status, resolution string, operator string) error {
	return r.db.WithContext(ctx).Model(&model.OpsRequest{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"resolution": resolution,
		"updated_by": operator,
		"updated_at": time.Now(),
	}).Error
}

func (r *requestRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.OpsRequest{}, id).Error
}

func (r *requestRepo) List(ctx context.Context, filter RequestFilter) ([]model.OpsRequest, int64, error) {
	var requests []model.OpsRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&model.OpsRequest{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssigneeID > 0 {
		query = query.Where("assignee_id = ?", filter.AssigneeID)
	}
	if filter.AccountID > 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Keyword != "" {
		query = query.Where("title LIKE ?", "%"+filter.Keyword+"%")
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

	if err := query.Preload("Assignee").Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// CountByStatus 按状态统计工单数量（看板用）
func (r *requestRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Cnt    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&model.OpsRequest{}).
		Select("status, COUNT(*) AS cnt").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Cnt
	}
	return result, nil
}
