package repository

import (
	"context"

	"gorm.io/gorm"

	"magiops_v1_202608/internal/model"
)

// TeamMemberRepository 团队成员仓储接口
type TeamMemberRepository interface {
	Create(ctx context.Context, member *model.TeamMember) error
	GetByID(ctx context.Context, id int64) (*model.TeamMember, error)
	GetByUsername(ctx context.Context, username string) (*model.TeamMember, error)
	Update(ctx context.Context, member *model.TeamMember) error
	SetActive(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, role string) ([]model.TeamMember, error)
}

type teamMemberRepo struct {
	db *gorm.DB
}

// NewTeamMemberRepository 创建团队成员仓储
func NewTeamMemberRepository(db *gorm.DB) TeamMemberRepository {
	return &teamMemberRepo{db: db}
}

func (r *teamMemberRepo) Create(ctx context.Context, member *model.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *teamMemberRepo) GetByID(ctx context.Context, id int64) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamMemberRepo) GetByUsername(ctx context.Context, username string) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamMemberRepo) Update(ctx context.Context, member *model.TeamMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *teamMemberRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).Model(&model.TeamMember{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *teamMemberRepo) List(ctx context.Context, role string) ([]model.TeamMember, error) {
	var members []model.TeamMember
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
