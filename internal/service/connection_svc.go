package service

import (
	"context"
	"fmt"
	"time"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/pkg/crypto"
)

// ConnectionService 授权连接的查询与维护
type ConnectionService struct {
	connRepo repository.ConnectionRepository
	cipher   *crypto.TokenCipher
}

// NewConnectionService 工厂方法
func NewConnectionService(connRepo repository.ConnectionRepository, cipher *crypto.TokenCipher) *ConnectionService {
	return &ConnectionService{connRepo: connRepo, cipher: cipher}
}

// CreateManual 手工录入连接（用于迁移既有 refresh token，不走授权页）
func (s *ConnectionService) CreateManual(ctx context.Context, req dto.ConnectionCreateReq, operator string) (*model.Connection, error) {
	accessEnc, err := s.cipher.Encrypt(req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("加密 access token 失败: %w", err)
	}
	refreshEnc, err := s.cipher.Encrypt(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("加密 refresh token 失败: %w", err)
	}

	conn := &model.Connection{
		Label:             req.Label,
		ProviderAccountID: req.ProviderAccountID,
		AccessToken:       accessEnc,
		RefreshToken:      refreshEnc,
		TokenExpiresAt:    time.Now().Add(time.Duration(req.ExpiresIn) * time.Second),
		Status:            model.ConnStatusActive,
	}
	conn.CreatedBy = operator
	if err = s.connRepo.Create(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// GetConnection 查询单个连接（带账户列表）
func (s *ConnectionService) GetConnection(ctx context.Context, id int64) (*model.Connection, error) {
	return s.connRepo.GetByIDWithAccounts(ctx, id)
}

// ListConnections 分页查询连接
func (s *ConnectionService) ListConnections(ctx context.Context, req dto.ConnectionListReq) ([]model.Connection, int64, error) {
	return s.connRepo.List(ctx, repository.ConnectionFilter{
		Status:   req.Status,
		Label:    req.Label,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// UpdateLabel 更新连接备注
func (s *ConnectionService) UpdateLabel(ctx context.Context, id int64, label string) error {
	if _, err := s.connRepo.GetByID(ctx, id); err != nil {
		return err
	}
	// 只允许改备注性字段，凭证/状态字段归 TokenService 管
	return s.connRepo.UpdateLabel(ctx, id, label)
}
