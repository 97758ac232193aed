package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/pkg/adsapi"
)

// ErrNoConnection 账户未绑定授权连接且无缓存可退
var ErrNoConnection = errors.New("账户未绑定授权连接")

// ErrNoCache 实时读取失败且无历史缓存
var ErrNoCache = errors.New("实时读取失败且无缓存")

// FallbackResult 实时优先、缓存兜底的读取结果
type FallbackResult struct {
	Data        interface{}
	FromCache   bool
	CacheAgeMs  int64
	CacheReason string
}

// MetricsService 账户指标与层级列表的读取入口
// 统一走"实时优先、缓存兜底"协议：任何第三方故障都降级为
// 带原因标记的旧数据，而不是错误页
type MetricsService struct {
	accountRepo repository.AdAccountRepository
	tokenSvc    *TokenService
	ads         AdsClient
}

// NewMetricsService 工厂方法
func NewMetricsService(accountRepo repository.AdAccountRepository, tokenSvc *TokenService, ads AdsClient) *MetricsService {
	return &MetricsService{
		accountRepo: accountRepo,
		tokenSvc:    tokenSvc,
		ads:         ads,
	}
}

// GetAccountMetrics 读取账户级汇总指标（实时优先）
// 指标的"缓存"就是账户行上最近一次同步落下的指标列
func (s *MetricsService) GetAccountMetrics(ctx context.Context, accountID int64) (*FallbackResult, error) {
	account, err := s.accountRepo.GetByIDWithConnection(ctx, accountID)
	if err != nil {
		return nil, err
	}

	metricsCache := func(reason string) (*FallbackResult, bool) {
		if account.LastSyncAt == nil {
			return nil, false
		}
		return &FallbackResult{
			Data: &adsapi.AccountMetrics{
				ExternalID:    account.ExternalID,
				SpendTotal:    account.SpendTotal,
				AdCount:       account.AdCount,
				CampaignCount: account.CampaignCount,
				HealthStatus:  account.HealthStatus,
				BillingStatus: account.BillingStatus,
			},
			FromCache:   true,
			CacheAgeMs:  time.Since(*account.LastSyncAt).Milliseconds(),
			CacheReason: reason,
		}, true
	}

	// 1. 未绑定连接
	if account.ConnectionID == nil || account.Connection == nil {
		if res, ok := metricsCache(dto.CacheReasonNoConnection); ok {
			return res, nil
		}
		return nil, fmt.Errorf("%w: 账户 %d 请先完成授权", ErrNoConnection, account.ID)
	}

	// 2/3. 凭证守护
	token, err := s.tokenSvc.EnsureValidToken(ctx, account.Connection)
	if err != nil {
		reason := dto.CacheReasonTokenRefreshFailed
		if errors.Is(err, ErrDecryptFailed) {
			reason = dto.CacheReasonTokenDecryptFailed
		}
		if res, ok := metricsCache(reason); ok {
			return res, nil
		}
		return nil, err
	}

	// 4. 实时抓取
	metrics, err := s.ads.FetchMetrics(ctx, token, account.ExternalID)
	if err != nil {
		log.Printf("[MetricsService] 账户 %d 指标实时读取失败: %v", account.ID, err)
		if res, ok := metricsCache(dto.CacheReasonAPIFetchFailed); ok {
			return res, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoCache, err)
	}

	// 5. 顺手把最新指标写回账户行
	if err := s.accountRepo.UpdateMetrics(ctx, account.ID, repository.MetricsUpdate{
		SpendTotal:    metrics.SpendTotal,
		AdCount:       metrics.AdCount,
		CampaignCount: metrics.CampaignCount,
		HealthStatus:  metrics.HealthStatus,
		BillingStatus: metrics.BillingStatus,
		SyncedAt:      time.Now(),
	}); err != nil {
		log.Printf("[MetricsService] 账户 %d 指标写回失败: %v", account.ID, err)
	}

	return &FallbackResult{Data: metrics, FromCache: false}, nil
}

// GetCampaigns 读取 campaign 列表（实时优先）
func (s *MetricsService) GetCampaigns(ctx context.Context, accountID int64, filter adsapi.ListingFilter) (*FallbackResult, error) {
	return s.getListing(ctx, accountID, model.ListingKindCampaign, filter)
}

// GetAdGroups 读取 ad group 列表（实时优先）
func (s *MetricsService) GetAdGroups(ctx context.Context, accountID int64, filter adsapi.ListingFilter) (*FallbackResult, error) {
	return s.getListing(ctx, accountID, model.ListingKindAdGroup, filter)
}

// GetKeywords 读取 keyword 列表（实时优先）
func (s *MetricsService) GetKeywords(ctx context.Context, accountID int64, filter adsapi.ListingFilter) (*FallbackResult, error) {
	return s.getListing(ctx, accountID, model.ListingKindKeyword, filter)
}

func (s *MetricsService) getListing(ctx context.Context, accountID int64, kind string, filter adsapi.ListingFilter) (*FallbackResult, error) {
	account, err := s.accountRepo.GetByIDWithConnection(ctx, accountID)
	if err != nil {
		return nil, err
	}

	fetch := func(token string) (interface{}, error) {
		switch kind {
		case model.ListingKindCampaign:
			return s.ads.FetchCampaigns(ctx, token, account.ExternalID, filter)
		case model.ListingKindAdGroup:
			return s.ads.FetchAdGroups(ctx, token, account.ExternalID, filter)
		default:
			return s.ads.FetchKeywords(ctx, token, account.ExternalID, filter)
		}
	}

	return s.getLiveOrCached(ctx, account, kind, filter, fetch)
}

// getLiveOrCached 读取降级协议，按序短路：
// 1. 无连接 -> 直接回缓存（reason=no_connection）
// 2. 解密失败 -> 回缓存（reason=token_decrypt_failed）
// 3. 刷新失败 -> 回缓存（reason=token_refresh_failed），无缓存时向上抛
// 4. 实时抓取失败 -> 回缓存（reason=api_fetch_failed），无缓存时向上抛
// 5. 成功 -> 无过滤条件时顺手更新缓存，返回实时数据
func (s *MetricsService) getLiveOrCached(ctx context.Context, account *model.AdAccount, kind string, filter adsapi.ListingFilter, fetch func(token string) (interface{}, error)) (*FallbackResult, error) {
	// 1. 未绑定连接
	if account.ConnectionID == nil || account.Connection == nil {
		if res, ok := s.fromCache(account, kind, filter, dto.CacheReasonNoConnection); ok {
			return res, nil
		}
		return nil, fmt.Errorf("%w: 账户 %d 请先完成授权", ErrNoConnection, account.ID)
	}

	// 2/3. 统一走凭证守护；解密失败与刷新失败分别标记
	token, err := s.tokenSvc.EnsureValidToken(ctx, account.Connection)
	if err != nil {
		reason := dto.CacheReasonTokenRefreshFailed
		if errors.Is(err, ErrDecryptFailed) {
			reason = dto.CacheReasonTokenDecryptFailed
		}
		if res, ok := s.fromCache(account, kind, filter, reason); ok {
			return res, nil
		}
		return nil, err
	}

	// 4. 实时抓取
	data, err := fetch(token)
	if err != nil {
		log.Printf("[MetricsService] 账户 %d %s 实时读取失败: %v", account.ID, kind, err)
		if res, ok := s.fromCache(account, kind, filter, dto.CacheReasonAPIFetchFailed); ok {
			return res, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoCache, err)
	}

	// 5. 只缓存完整视图，避免把过滤后的局部结果当成全量
	if filter.IsEmpty() {
		if raw, merr := json.Marshal(data); merr == nil {
			if cerr := s.accountRepo.UpdateListingCache(ctx, account.ID, kind, datatypes.JSON(raw), time.Now()); cerr != nil {
				log.Printf("[MetricsService] 账户 %d %s 缓存更新失败: %v", account.ID, kind, cerr)
			}
		}
	}

	return &FallbackResult{Data: data, FromCache: false}, nil
}

// fromCache 取该资源的最近一次缓存，成功时附带缓存龄与降级原因
// 缓存存的是全量列表，过滤条件在这里补做，保证降级读与实时读同形
func (s *MetricsService) fromCache(account *model.AdAccount, kind string, filter adsapi.ListingFilter, reason string) (*FallbackResult, bool) {
	raw, cachedAt := account.ListingCache(kind)
	if len(raw) == 0 || cachedAt == nil {
		return nil, false
	}

	data, err := decodeListing(kind, raw, filter)
	if err != nil {
		// 缓存本身损坏，等同无缓存
		log.Printf("[MetricsService] 账户 %d %s 缓存反序列化失败: %v", account.ID, kind, err)
		return nil, false
	}

	return &FallbackResult{
		Data:        data,
		FromCache:   true,
		CacheAgeMs:  time.Since(*cachedAt).Milliseconds(),
		CacheReason: reason,
	}, true
}

// decodeListing 按资源类型还原缓存为具体列表并套用过滤条件
func decodeListing(kind string, raw []byte, f adsapi.ListingFilter) (interface{}, error) {
	switch kind {
	case model.ListingKindCampaign:
		var list []adsapi.Campaign
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		if f.IsEmpty() {
			return list, nil
		}
		out := make([]adsapi.Campaign, 0, len(list))
		for _, c := range list {
			if c.Matches(f) {
				out = append(out, c)
			}
		}
		return out, nil
	case model.ListingKindAdGroup:
		var list []adsapi.AdGroup
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		if f.IsEmpty() {
			return list, nil
		}
		out := make([]adsapi.AdGroup, 0, len(list))
		for _, g := range list {
			if g.Matches(f) {
				out = append(out, g)
			}
		}
		return out, nil
	default:
		var list []adsapi.Keyword
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		if f.IsEmpty() {
			return list, nil
		}
		out := make([]adsapi.Keyword, 0, len(list))
		for _, k := range list {
			if k.Matches(f) {
				out = append(out, k)
			}
		}
		return out, nil
	}
}
