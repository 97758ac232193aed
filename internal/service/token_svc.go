package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/pkg/adsapi"
	"magiops_v1_202608/pkg/crypto"
)

// 业务常量
const (
	// RefreshBuffer 提前刷新窗口：距过期不足 5 分钟即主动续期
	RefreshBuffer = 5 * time.Minute
)

// ErrDecryptFailed 凭证解密失败（密文损坏按软失败处理，不崩进程）
var ErrDecryptFailed = errors.New("凭证解密失败")

// AdsClient 广告平台客户端抽象（便于测试替换）
type AdsClient interface {
	RefreshToken(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error)
	FetchMetrics(ctx context.Context, accessToken, externalID string) (*adsapi.AccountMetrics, error)
	FetchCampaigns(ctx context.Context, accessToken, externalID string, f adsapi.ListingFilter) ([]adsapi.Campaign, error)
	FetchAdGroups(ctx context.Context, accessToken, externalID string, f adsapi.ListingFilter) ([]adsapi.AdGroup, error)
	FetchKeywords(ctx context.Context, accessToken, externalID string, f adsapi.ListingFilter) ([]adsapi.Keyword, error)
}

// RefreshError 刷新失败后抛给上层的分类错误
// NeedsReauth=true 表示 refresh token 已失效，需要人工重新授权
type RefreshError struct {
	NeedsReauth bool
	Retryable   bool
	Err         error
}

func (e *RefreshError) Error() string {
	if e.NeedsReauth {
		return fmt.Sprintf("token 刷新失败（需重新授权）: %v", e.Err)
	}
	return fmt.Sprintf("token 刷新失败（可重试）: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// AsRefreshError 判断是否为刷新失败错误
func AsRefreshError(err error) (*RefreshError, bool) {
	var re *RefreshError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// RetryPolicy 刷新重试策略（注入式，测试可调小）
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy 默认策略：最多 3 次，间隔 2s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}
}

// TokenService 统一的凭证守护：判定是否需要刷新、带重试刷新、
// 分类失败并落库。凭证/状态字段只允许本服务写入
type TokenService struct {
	connRepo repository.ConnectionRepository
	ads      AdsClient
	cipher   *crypto.TokenCipher
	retry    RetryPolicy
}

// NewTokenService 工厂方法
func NewTokenService(connRepo repository.ConnectionRepository, ads AdsClient, cipher *crypto.TokenCipher, retry RetryPolicy) *TokenService {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &TokenService{
		connRepo: connRepo,
		ads:      ads,
		cipher:   cipher,
		retry:    retry,
	}
}

// NeedsRefresh 判定连接是否需要刷新
// expired 状态也会重试：refresh token 的寿命可能长于状态标记（乐观重试）
func (s *TokenService) NeedsRefresh(conn *model.Connection, now time.Time) bool {
	if conn.Status == model.ConnStatusNeedsRefresh || conn.Status == model.ConnStatusExpired {
		return true
	}
	return !now.Before(conn.TokenExpiresAt.Add(-RefreshBuffer))
}

// EnsureValidToken 返回可用的明文 access token
// 不需要刷新时直接解密返回；需要刷新时走网络换取并落库。
// 发生过网络刷新的调用，无论成败只写一次库，调用方不得自行重写
func (s *TokenService) EnsureValidToken(ctx context.Context, conn *model.Connection) (string, error) {
	now := time.Now()

	// 1. 未到刷新窗口：解密现有 token 直接返回
	if !s.NeedsRefresh(conn, now) {
		plain, err := s.cipher.Decrypt(conn.AccessToken)
		if err != nil {
			return "", fmt.Errorf("%w: access token: %v", ErrDecryptFailed, err)
		}
		return plain, nil
	}

	// 2. 解密 refresh token（解密失败没有发生网络调用，不落库）
	refreshPlain, err := s.cipher.Decrypt(conn.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: refresh token: %v", ErrDecryptFailed, err)
	}

	// 3. 带重试换取新 token
	grant, err := s.refreshWithRetry(ctx, refreshPlain)
	if err != nil {
		return "", s.persistFailure(ctx, conn, err)
	}

	// 4. 成功：加密入库（单次写），供应商轮换 refresh token 时一并保存
	newAccessEnc, err := s.cipher.Encrypt(grant.AccessToken)
	if err != nil {
		return "", fmt.Errorf("加密新 access token 失败: %w", err)
	}
	newRefreshEnc := conn.RefreshToken
	if grant.NewRefreshToken != "" {
		if newRefreshEnc, err = s.cipher.Encrypt(grant.NewRefreshToken); err != nil {
			return "", fmt.Errorf("加密新 refresh token 失败: %w", err)
		}
	}
	expiresAt := now.Add(time.Duration(grant.ExpiresIn) * time.Second)

	if err = s.connRepo.UpdateToken(ctx, conn.ID, newAccessEnc, newRefreshEnc, expiresAt); err != nil {
		return "", fmt.Errorf("刷新结果入库失败: %w", err)
	}

	// 同步内存中的记录，调用方后续不需要重查
	conn.AccessToken = newAccessEnc
	conn.RefreshToken = newRefreshEnc
	conn.TokenExpiresAt = expiresAt
	conn.Status = model.ConnStatusActive
	conn.LastSyncError = ""

	log.Printf("[TokenService] 连接 %d (%s) token 已刷新，有效期至 %s", conn.ID, conn.Label, expiresAt.Format(time.RFC3339))
	return grant.AccessToken, nil
}

// refreshWithRetry 带退避重试的刷新调用
// 只有可重试错误（网络/限流/5xx）才继续下一轮
func (s *TokenService) refreshWithRetry(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		grant, err := s.ads.RefreshToken(ctx, refreshToken)
		if err == nil {
			return grant, nil
		}
		lastErr = err

		apiErr, ok := adsapi.AsAPIError(err)
		if ok && !apiErr.Retryable {
			// 结构性拒绝（invalid_grant 等），重试无意义
			return nil, err
		}
		if attempt < s.retry.MaxAttempts {
			log.Printf("[TokenService] 刷新第 %d 次失败: %v，%s 后重试", attempt, err, s.retry.Backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retry.Backoff):
			}
		}
	}
	return nil, lastErr
}

// persistFailure 刷新失败分类落库，返回 *RefreshError
// 可恢复 -> needs_refresh（下轮再试）；不可恢复 -> expired（需重新授权）
func (s *TokenService) persistFailure(ctx context.Context, conn *model.Connection, cause error) error {
	terminal := false
	if apiErr, ok := adsapi.AsAPIError(cause); ok && !apiErr.Retryable {
		terminal = true
	}

	status := model.ConnStatusNeedsRefresh
	if terminal {
		status = model.ConnStatusExpired
	}
	// 失败状态必须落库一次；调用方 ctx 已取消时换用独立短超时
	writeCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.connRepo.UpdateTokenFailure(writeCtx, conn.ID, status, cause.Error()); err != nil {
		log.Printf("[TokenService] 连接 %d 失败状态落库异常: %v", conn.ID, err)
	}
	conn.Status = status
	conn.LastSyncError = cause.Error()

	return &RefreshError{
		NeedsReauth: terminal,
		Retryable:   !terminal,
		Err:         cause,
	}
}
