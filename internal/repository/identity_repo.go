package repository

import (
	"context"

	"gorm.io/gorm"

	"magiops_v1_202608/internal/model"
)

// IdentityRepository 浏览器身份仓储接口
type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	GetByID(ctx context.Context, id int64) (*model.Identity, error)
	Update(ctx context.Context, identity *model.Identity) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter IdentityFilter) ([]model.Identity, int64, error)
}

// IdentityFilter 身份过滤条件
type IdentityFilter struct {
	Keyword  string
	Status   int // 0 表示不筛选
	Country  string
	Page     int
	PageSize int
}

type identityRepo struct {
	db *gorm.DB
}

// NewIdentityRepository 创建身份仓储
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepo{db: db}
}

func (r *identityRepo) Create(ctx context.Context, identity *model.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r *identityRepo) GetByID(ctx context.Context, id int64) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).First(&identity, id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepo) Update(ctx context.Context, identity *model.Identity) error {
	return r.db.WithContext(ctx).Save(identity).Error
}

func (r *identityRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Identity{}).Where("id = ?", id).Updates(fields).Error
}

func (r *identityRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Identity{}, id).Error
}

func (r *identityRepo) List(ctx context.Context, filter IdentityFilter) ([]model.Identity, int64, error) {
	var identities []model.Identity
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Identity{})
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", kw, kw)
	}
	if filter.Status > 0 {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
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

	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&identities).Error; err != nil {
		return nil, 0, err
	}
	return identities, total, nil
}
