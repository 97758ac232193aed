package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/pkg/dnsapi"
)

// DNSClient DNS 服务商客户端抽象（便于测试替换）
type DNSClient interface {
	CreateRecord(ctx context.Context, zoneID string, rec dnsapi.Record) (*dnsapi.Record, error)
	LookupRecord(ctx context.Context, zoneID, name string) (*dnsapi.Record, error)
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// DomainService 落地页域名接入与验证
type DomainService struct {
	domainRepo  repository.DomainRepository
	accountRepo repository.AdAccountRepository
	dns         DNSClient
}

// NewDomainService 工厂方法
func NewDomainService(domainRepo repository.DomainRepository, accountRepo repository.AdAccountRepository, dns DNSClient) *DomainService {
	return &DomainService{domainRepo: domainRepo, accountRepo: accountRepo, dns: dns}
}

// CreateDomain 接入域名：在 DNS 服务商创建 CNAME 记录后落库为 pending
func (s *DomainService) CreateDomain(ctx context.Context, req dto.DomainCreateReq, operator string) (*model.Domain, error) {
	if existing, err := s.domainRepo.GetByHostname(ctx, req.Hostname); err == nil && existing != nil {
		return nil, fmt.Errorf("域名 %s 已接入（ID=%d）", req.Hostname, existing.ID)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if req.AccountID != nil {
		if _, err := s.accountRepo.GetByID(ctx, *req.AccountID); err != nil {
			return nil, fmt.Errorf("关联账户不存在: %w", err)
		}
	}

	rec, err := s.dns.CreateRecord(ctx, req.ZoneID, dnsapi.Record{
		Type:    "CNAME",
		Name:    req.Hostname,
		Content: req.Target,
		TTL:     300,
		Proxied: req.Proxied,
	})
	if err != nil {
		return nil, fmt.Errorf("解析记录创建失败: %w", err)
	}

	domain := &model.Domain{
		Hostname:  req.Hostname,
		ZoneID:    req.ZoneID,
		RecordID:  rec.ID,
		Target:    req.Target,
		Status:    model.DomainStatusPending,
		AccountID: req.AccountID,
	}
	domain.CreatedBy = operator
	if err = s.domainRepo.Create(ctx, domain); err != nil {
		return nil, err
	}
	return domain, nil
}

// GetDomain 查询单个域名
func (s *DomainService) GetDomain(ctx context.Context, id int64) (*model.Domain, error) {
	return s.domainRepo.GetByID(ctx, id)
}

// ListDomains 分页查询域名
func (s *DomainService) ListDomains(ctx context.Context, req dto.DomainListReq) ([]model.Domain, int64, error) {
	return s.domainRepo.List(ctx, repository.DomainFilter{
		Status:    req.Status,
		AccountID: req.AccountID,
		Keyword:   req.Keyword,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
}

// VerifyDomain 主动验证域名解析是否生效
func (s *DomainService) VerifyDomain(ctx context.Context, id int64) (*model.Domain, error) {
	domain, err := s.domainRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rec, err := s.dns.LookupRecord(ctx, domain.ZoneID, domain.Hostname)
	if err != nil {
		return nil, fmt.Errorf("解析记录查询失败: %w", err)
	}
	if rec == nil || rec.Content != domain.Target {
		if uerr := s.domainRepo.MarkFailed(ctx, id); uerr != nil {
			log.Printf("[DomainService] 域名 %d 验证失败状态落库异常: %v", id, uerr)
		}
		return nil, fmt.Errorf("域名 %s 解析未生效或指向不符", domain.Hostname)
	}

	if err = s.domainRepo.MarkVerified(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	return s.domainRepo.GetByID(ctx, id)
}

// DeleteDomain 下线域名：先删服务商解析记录，再软删本地行
func (s *DomainService) DeleteDomain(ctx context.Context, id int64) error {
	domain, err := s.domainRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if domain.RecordID != "" {
		if derr := s.dns.DeleteRecord(ctx, domain.ZoneID, domain.RecordID); derr != nil {
			// 服务商侧删除失败不阻断本地下线，留日志人工兜底
			log.Printf("[DomainService] 域名 %d 服务商记录删除失败: %v", id, derr)
		}
	}
	return s.domainRepo.Delete(ctx, id)
}

// VerifyPending 批量验证 pending 域名（定时任务用）
func (s *DomainService) VerifyPending(ctx context.Context) (verified, failed int) {
	domains, err := s.domainRepo.ListPending(ctx)
	if err != nil {
		log.Printf("[DomainService] 待验证域名加载失败: %v", err)
		return 0, 0
	}
	for i := range domains {
		if _, err := s.VerifyDomain(ctx, domains[i].ID); err != nil {
			failed++
			continue
		}
		verified++
	}
	return verified, failed
}
