package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"magiops_v1_202608/internal/model"
)

// DomainRepository 落地页域名仓储接口
type DomainRepository interface {
	Create(ctx context.Context, domain *model.Domain) error
	GetByID(ctx context.Context, id int64) (*model.Domain, error)
	GetByHostname(ctx context.Context, hostname string) (*model.Domain, error)
	Update(ctx context.Context, domain *model.Domain) error
	MarkVerified(ctx context.Context, id int64, verifiedAt time.Time) error
	MarkFailed(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter DomainFilter) ([]model.Domain, int64, error)
	ListPending(ctx context.Context) ([]model.Domain, error)
}

// DomainFilter 域名过滤条件
type DomainFilter struct {
	Status    string
	AccountID int64
	Keyword   string
	Page      int
	PageSize  int
}

type domainRepo struct {
	db *gorm.DB
}

// NewDomainRepository 创建域名仓储
func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepo{db: db}
}

func (r *domainRepo) Create(ctx context.Context, domain *model.Domain) error {
	return r.db.WithContext(ctx).Create(domain).Error
}

func (r *domainRepo) GetByID(ctx context.Context, id int64) (*model.Domain, error) {
	var domain model.Domain
	if err := r.db.WithContext(ctx).Preload("Account").First(&domain, id).Error; err != nil {
		return nil, err
	}
	return &domain, nil
}

func (r *domainRepo) GetByHostname(ctx context.Context, hostname string) (*model.Domain, error) {
	var domain model.Domain
	if err := r.db.WithContext(ctx).Where("hostname = ?", hostname).First(&domain).Error; err != nil {
		return nil, err
	}
	return &domain, nil
}

func (r *domainRepo) Update(ctx context.Context, domain *model.Domain) error {
	return r.db.WithContext(ctx).Save(domain).Error
}

func (r *domainRepo) MarkVerified(ctx context.Context, id int64, verifiedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Domain{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      model.DomainStatusVerified,
		"verified_at": verifiedAt,
	}).Error
}

func (r *domainRepo) MarkFailed(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&model.Domain{}).Where("id = ?", id).Update("status", model.DomainStatusFailed).Error
}

func (r *domainRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Domain{}, id).Error
}

func (r *domainRepo) List(ctx context.Context, filter DomainFilter) ([]model.Domain, int64, error) {
	var domains []model.Domain
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Domain{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AccountID > 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Keyword != "" {
		query = query.Where("hostname LIKE ?", "%"+filter.Keyword+"%")
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

	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&domains).Error; err != nil {
		return nil, 0, err
	}
	return domains, total, nil
}

// ListPending 列出待验证域名（校验任务用）
func (r *domainRepo) ListPending(ctx context.Context) ([]model.Domain, error) {
	var domains []model.Domain
	if err := r.db.WithContext(ctx).Where("status = ?", model.DomainStatusPending).Find(&domains).Error; err != nil {
		return nil, err
	}
	return domains, nil
}
