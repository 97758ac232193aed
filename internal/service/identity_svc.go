package service

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/pkg/crypto"
)

// IdentityService 浏览器身份管理
// cookies 为敏感字段，入库前加密，查询接口不回显
type IdentityService struct {
	identityRepo repository.IdentityRepository
	cipher       *crypto.TokenCipher
}

// NewIdentityService 工厂方法
func NewIdentityService(identityRepo repository.IdentityRepository, cipher *crypto.TokenCipher) *IdentityService {
	return &IdentityService{identityRepo: identityRepo, cipher: cipher}
}

// CreateIdentity 新建身份
func (s *IdentityService) CreateIdentity(ctx context.Context, req dto.IdentityCreateReq, operator string) (*model.Identity, error) {
	identity := &model.Identity{
		Name:      req.Name,
		FullName:  req.FullName,
		Email:     req.Email,
		Country:   req.Country,
		ProfileID: req.ProfileID,
		UserAgent: req.UserAgent,
		ProxyURL:  req.ProxyURL,
		Tags:      pq.StringArray(req.Tags),
		Status:    model.IdentityStatusActive,
		Note:      req.Note,
	}
	identity.CreatedBy = operator

	if req.Cookies != "" {
		enc, err := s.cipher.Encrypt(req.Cookies)
		if err != nil {
			return nil, fmt.Errorf("加密 cookies 失败: %w", err)
		}
		identity.Cookies = enc
	}

	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// GetIdentity 查询单个身份
func (s *IdentityService) GetIdentity(ctx context.Context, id int64) (*model.Identity, error) {
	return s.identityRepo.GetByID(ctx, id)
}

// ListIdentities 分页查询身份
func (s *IdentityService) ListIdentities(ctx context.Context, req dto.IdentityListReq) ([]model.Identity, int64, error) {
	return s.identityRepo.List(ctx, repository.IdentityFilter{
		Keyword:  req.Keyword,
		Status:   req.Status,
		Country:  req.Country,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// UpdateIdentity 更新身份字段
func (s *IdentityService) UpdateIdentity(ctx context.Context, id int64, req dto.IdentityUpdateReq, operator string) (*model.Identity, error) {
	identity, err := s.identityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_by": operator}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.FullName != "" {
		fields["full_name"] = req.FullName
	}
	if req.Email != "" {
		fields["email"] = req.Email
	}
	if req.Country != "" {
		fields["country"] = req.Country
	}
	if req.ProfileID != "" {
		fields["profile_id"] = req.ProfileID
	}
	if req.UserAgent != "" {
		fields["user_agent"] = req.UserAgent
	}
	if req.ProxyURL != "" {
		fields["proxy_url"] = req.ProxyURL
	}
	if req.Tags != nil {
		fields["tags"] = pq.StringArray(req.Tags)
	}
	if req.Status > 0 {
		fields["status"] = req.Status
	}
	if req.Note != "" {
		fields["note"] = req.Note
	}
	if req.Cookies != "" {
		enc, cerr := s.cipher.Encrypt(req.Cookies)
		if cerr != nil {
			return nil, fmt.Errorf("加密 cookies 失败: %w", cerr)
		}
		fields["cookies"] = enc
	}

	if err = s.identityRepo.UpdateFields(ctx, identity.ID, fields); err != nil {
		return nil, err
	}
	return s.identityRepo.GetByID(ctx, id)
}

// DeleteIdentity 删除身份（软删除）
func (s *IdentityService) DeleteIdentity(ctx context.Context, id int64) error {
	if _, err := s.identityRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.identityRepo.Delete(ctx, id)
}

// DecryptCookies 自动化侧取用 cookies 明文（不走常规查询接口）
func (s *IdentityService) DecryptCookies(ctx context.Context, id int64) (string, error) {
	identity, err := s.identityRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if identity.Cookies == "" {
		return "", nil
	}
	plain, err := s.cipher.Decrypt(identity.Cookies)
	if err != nil {
		return "", fmt.Errorf("%w: cookies: %v", ErrDecryptFailed, err)
	}
	return plain, nil
}
