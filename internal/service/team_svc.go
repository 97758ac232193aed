package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
)

// TeamService 团队成员档案管理
type TeamService struct {
	memberRepo repository.TeamMemberRepository
}

// ErrInvalidCredential 用户名或密码错误（已停用的账号同样返回该错误）
var ErrInvalidCredential = errors.New("用户名或密码错误")

// NewTeamService 工厂方法
func NewTeamService(memberRepo repository.TeamMemberRepository) *TeamService {
	return &TeamService{memberRepo: memberRepo}
}

// CreateMember 新建成员，用户名全局唯一
func (s *TeamService) CreateMember(ctx context.Context, req dto.TeamMemberCreateReq, operator string) (*model.TeamMember, error) {
	if existing, err := s.memberRepo.GetByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("用户名 %s 已存在", req.Username)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	member := &model.TeamMember{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
		Note:         req.Note,
	}
	if err = s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Authenticate 校验用户名密码，成功返回成员档案
// 停用账号与密码错误返回同一个错误
func (s *TeamService) Authenticate(ctx context.Context, username, password string) (*model.TeamMember, error) {
	member, err := s.memberRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if !member.IsActive {
		return nil, ErrInvalidCredential
	}
	if err = bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return member, nil
}

// GetMember 查询单个成员
func (s *TeamService) GetMember(ctx context.Context, id int64) (*model.TeamMember, error) {
	return s.memberRepo.GetByID(ctx, id)
}

// ListMembers 查询成员列表，可按角色过滤
func (s *TeamService) ListMembers(ctx context.Context, role string) ([]model.TeamMember, error) {
	return s.memberRepo.List(ctx, role)
}

// UpdateMember 更新成员档案
func (s *TeamService) UpdateMember(ctx context.Context, id int64, req dto.TeamMemberUpdateReq) (*model.TeamMember, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" {
		member.DisplayName = req.DisplayName
	}
	if req.Email != "" {
		member.Email = req.Email
	}
	if req.Role != "" {
		member.Role = req.Role
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}
	if req.Note != "" {
		member.Note = req.Note
	}
	if err = s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}
