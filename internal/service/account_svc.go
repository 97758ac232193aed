package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
)

// AccountService 广告账户档案管理
type AccountService struct {
	accountRepo  repository.AdAccountRepository
	snapshotRepo repository.SnapshotRepository
}

// NewAccountService 工厂方法
func NewAccountService(accountRepo repository.AdAccountRepository, snapshotRepo repository.SnapshotRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo, snapshotRepo: snapshotRepo}
}

// CreateAccount 新建账户档案，外部 ID 全局唯一
func (s *AccountService) CreateAccount(ctx context.Context, req dto.AccountCreateReq, operator string) (*model.AdAccount, error) {
	if existing, err := s.accountRepo.GetByExternalID(ctx, req.ExternalID); err == nil && existing != nil {
		return nil, fmt.Errorf("外部账户 %s 已存在（ID=%d）", req.ExternalID, existing.ID)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account := &model.AdAccount{
		ExternalID:   req.ExternalID,
		Name:         req.Name,
		Region:       req.Region,
		ConnectionID: req.ConnectionID,
		IdentityID:   req.IdentityID,
		SyncStatus:   model.SyncStatusIdle,
	}
	account.CreatedBy = operator
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount 查询单个账户（带连接信息）
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.AdAccount, error) {
	return s.accountRepo.GetByIDWithConnection(ctx, id)
}

// ListAccounts 分页查询账户
func (s *AccountService) ListAccounts(ctx context.Context, req dto.AccountListReq) ([]model.AdAccount, int64, error) {
	return s.accountRepo.List(ctx, repository.AccountFilter{
		Keyword:      req.Keyword,
		Region:       req.Region,
		SyncStatus:   req.SyncStatus,
		ConnectionID: req.ConnectionID,
		IdentityID:   req.IdentityID,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
}

// UpdateAccount 更新账户档案字段
// 指标/同步状态字段不在此处写入，归批量同步与读路径管
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, req dto.AccountUpdateReq, operator string) (*model.AdAccount, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_by": operator}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Region != "" {
		fields["region"] = req.Region
	}
	if req.ConnectionID != nil {
		fields["connection_id"] = *req.ConnectionID
	}
	if req.IdentityID != nil {
		fields["identity_id"] = *req.IdentityID
	}
	if err = s.accountRepo.UpdateFields(ctx, account.ID, fields); err != nil {
		return nil, err
	}
	return s.accountRepo.GetByIDWithConnection(ctx, id)
}

// ArchiveAccount 归档账户（软删除，批量同步自动跳过）
func (s *AccountService) ArchiveAccount(ctx context.Context, id int64) error {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.accountRepo.Archive(ctx, id)
}

// ListSnapshots 查询账户日快照，from/to 为空时默认最近 30 天
func (s *AccountService) ListSnapshots(ctx context.Context, accountID int64, fromStr, toStr string) ([]model.DailySnapshot, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	var err error
	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return nil, fmt.Errorf("from 日期格式错误（应为 YYYY-MM-DD）: %v", err)
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return nil, fmt.Errorf("to 日期格式错误（应为 YYYY-MM-DD）: %v", err)
		}
	}
	return s.snapshotRepo.ListByAccount(ctx, accountID, from, to)
}
