package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/pkg/adsapi"
	"magiops_v1_202608/pkg/crypto"
)

// ==================== 测试辅助 ====================

// fakeConnRepo 只实现 TokenService 用到的写入方法，记录调用次数
type fakeConnRepo struct {
	repository.ConnectionRepository

	tokenWrites   int
	failureWrites int

	lastAccessToken  string
	lastRefreshToken string
	lastExpiresAt    time.Time
	lastStatus       string
	lastMessage      string
	lastWriteCtxErr  error
}

func (f *fakeConnRepo) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	f.tokenWrites++
	f.lastAccessToken = accessToken
	f.lastRefreshToken = refreshToken
	f.lastExpiresAt = expiresAt
	return nil
}

func (f *fakeConnRepo) UpdateTokenFailure(ctx context.Context, id int64, status, message string) error {
	f.failureWrites++
	f.lastStatus = status
	f.lastMessage = message
	f.lastWriteCtxErr = ctx.Err()
	return nil
}

// fakeAdsClient 可编程的平台客户端
type fakeAdsClient struct {
	refreshFn   func(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error)
	metricsFn   func(ctx context.Context, accessToken, externalID string) (*adsapi.AccountMetrics, error)
	campaignsFn func(ctx context.Context, accessToken, externalID string, f adsapi.ListingFilter) ([]adsapi.Campaign, error)

	refreshCalls int
	metricsCalls int
}

func (f *fakeAdsClient) RefreshToken(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
	f.refreshCalls++
	if f.refreshFn == nil {
		return nil, errors.New("refreshFn 未配置")
	}
	return f.refreshFn(ctx, refreshToken)
}

func (f *fakeAdsClient) FetchMetrics(ctx context.Context, accessToken, externalID string) (*adsapi.AccountMetrics, error) {
	f.metricsCalls++
	if f.metricsFn == nil {
		return nil, errors.New("metricsFn 未配置")
	}
	return f.metricsFn(ctx, accessToken, externalID)
}

func (f *fakeAdsClient) FetchCampaigns(ctx context.Context, accessToken, externalID string, filter adsapi.ListingFilter) ([]adsapi.Campaign, error) {
	if f.campaignsFn == nil {
		return nil, errors.New("campaignsFn 未配置")
	}
	return f.campaignsFn(ctx, accessToken, externalID, filter)
}

func (f *fakeAdsClient) FetchAdGroups(ctx context.Context, accessToken, externalID string, filter adsapi.ListingFilter) ([]adsapi.AdGroup, error) {
	return nil, errors.New("未配置")
}

func (f *fakeAdsClient) FetchKeywords(ctx context.Context, accessToken, externalID string, filter adsapi.ListingFilter) ([]adsapi.Keyword, error) {
	return nil, errors.New("未配置")
}

func testCipher(t *testing.T) *crypto.TokenCipher {
	t.Helper()
	cipher, err := crypto.NewTokenCipher("unit-test-secret")
	if err != nil {
		t.Fatalf("创建加密器失败: %v", err)
	}
	return cipher
}

func mustEncrypt(t *testing.T, cipher *crypto.TokenCipher, plain string) string {
	t.Helper()
	enc, err := cipher.Encrypt(plain)
	if err != nil {
		t.Fatalf("加密失败: %v", err)
	}
	return enc
}

func activeConn(t *testing.T, cipher *crypto.TokenCipher, expiresIn time.Duration) *model.Connection {
	t.Helper()
	conn := &model.Connection{
		Label:          "测试连接",
		AccessToken:    mustEncrypt(t, cipher, "plain-access"),
		RefreshToken:   mustEncrypt(t, cipher, "plain-refresh"),
		TokenExpiresAt: time.Now().Add(expiresIn),
		Status:         model.ConnStatusActive,
	}
	conn.ID = 1
	return conn
}

// ==================== 刷新判定 ====================

func TestTokenService_NeedsRefresh(t *testing.T) {
	svc := &TokenService{}
	now := time.Now()

	cases := []struct {
		name      string
		status    string
		expiresAt time.Time
		want      bool
	}{
		{"距过期很久", model.ConnStatusActive, now.Add(2 * time.Hour), false},
		{"进入提前刷新窗口", model.ConnStatusActive, now.Add(3 * time.Minute), true},
		{"已过期", model.ConnStatusActive, now.Add(-time.Minute), true},
		{"needs_refresh 状态强制刷新", model.ConnStatusNeedsRefresh, now.Add(2 * time.Hour), true},
		{"expired 状态乐观重试", model.ConnStatusExpired, now.Add(2 * time.Hour), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &model.Connection{Status: tc.status, TokenExpiresAt: tc.expiresAt}
			if got := svc.NeedsRefresh(conn, now); got != tc.want {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tc.want)
			}
		})
	}
}

// ==================== EnsureValidToken ====================

func TestTokenService_EnsureValidToken_NoRefreshNeeded(t *testing.T) {
	cipher := testCipher(t)
	repo := &fakeConnRepo{}
	ads := &fakeAdsClient{}
	svc := NewTokenService(repo, ads, cipher, RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond})

	conn := activeConn(t, cipher, time.Hour)

	token, err := svc.EnsureValidToken(context.Background(), conn)
	if err != nil {
		t.Fatalf("EnsureValidToken() error = %v", err)
	}
	if token != "plain-access" {
		t.Errorf("token = %q, want plain-access", token)
	}
	// 未发生刷新，不允许任何落库
	if ads.refreshCalls != 0 {
		t.Errorf("refreshCalls = %d, want 0", ads.refreshCalls)
	}
	if repo.tokenWrites != 0 || repo.failureWrites != 0 {
		t.Errorf("落库次数 = %d/%d, want 0/0", repo.tokenWrites, repo.failureWrites)
	}
}

func TestTokenService_EnsureValidToken_RefreshSuccess(t *testing.T) {
	cipher := testCipher(t)
	repo := &fakeConnRepo{}
	ads := &fakeAdsClient{
		refreshFn: func(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
			if refreshToken != "plain-refresh" {
				t.Errorf("平台收到的 refresh token = %q, want plain-refresh", refreshToken)
			}
			return &adsapi.TokenGrant{
				AccessToken:     "new-access",
				ExpiresIn:       3600,
				NewRefreshToken: "rotated-refresh",
			}, nil
		},
	}
	svc := NewTokenService(repo, ads, cipher, RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond})

	conn := activeConn(t, cipher, time.Minute) // 已进入刷新窗口
	token, err := svc.EnsureValidToken(context.Background(), conn)
	if err != nil {
		t.Fatalf("EnsureValidToken() error = %v", err)
	}
	if token != "new-access" {
		t.Errorf("token = %q, want new-access", token)
	}

	// 一次网络刷新只允许一次落库
	if repo.tokenWrites != 1 {
		t.Errorf("tokenWrites = %d, want 1", repo.tokenWrites)
	}
	if repo.failureWrites != 0 {
		t.Errorf("failureWrites = %d, want 0", repo.failureWrites)
	}

	// 落库的是密文，且轮换后的 refresh token 一并保存
	if got, _ := cipher.Decrypt(repo.lastAccessToken); got != "new-access" {
		t.Errorf("落库 access token 解密 = %q, want new-access", got)
	}
	if got, _ := cipher.Decrypt(repo.lastRefreshToken); got != "rotated-refresh" {
		t.Errorf("落库 refresh token 解密 = %q, want rotated-refresh", got)
	}

	// 内存中的记录同步更新，调用方不需要重查
	if conn.Status != model.ConnStatusActive {
		t.Errorf("conn.Status = %s, want active", conn.Status)
	}
	if conn.AccessToken != repo.lastAccessToken {
		t.Error("内存中的 access token 未与落库值同步")
	}
}

func TestTokenService_EnsureValidToken_KeepsOldRefreshToken(t *testing.T) {
	cipher := testCipher(t)
	repo := &fakeConnRepo{}
	ads := &fakeAdsClient{
		refreshFn: func(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
			// 平台未轮换 refresh token
			return &adsapi.TokenGrant{AccessToken: "new-access", ExpiresIn: 3600}, nil
		},
	}
	svc := NewTokenService(repo, ads, cipher, RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond})

	conn := activeConn(t, cipher, time.Minute)
	oldRefresh := conn.RefreshToken

	if _, err := svc.EnsureValidToken(context.Background(), conn); err != nil {
		t.Fatalf("EnsureValidToken() error = %v", err)
	}
	if repo.lastRefreshToken != oldRefresh {
		t.Error("平台未轮换时应沿用旧 refresh token 密文")
	}
}

func TestTokenService_EnsureValidToken_DecryptFailed(t *testing.T) {
	cipher := testCipher(t)
	repo := &fakeConnRepo{}
	ads := &fakeAdsClient{}
	svc := NewTokenService(repo, ads, cipher, RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond})

	conn := activeConn(t, cipher, time.Minute)
	conn.RefreshToken = "not-valid-ciphertext"

	_, err := svc.EnsureValidToken(context.Background(), conn)
	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("error = %v, want ErrDecryptFailed", err)
	}

	// 没有发生网络调用，不允许落库
	if ads.refreshCalls != 0 {
		t.Errorf("refreshCalls = %d, want 0", ads.refreshCalls)
	}
	if repo.tokenWrites != 0 || repo.failureWrites != 0 {
		t.Errorf("落库次数 = %d/%d, want 0/0", repo.tokenWrites, repo.failureWrites)
	}
}

func TestTokenService_RefreshTerminalFailure(t *testing.T) {
	cipher := testCipher(t)
	repo := &fakeConnRepo{}
	ads := &fakeAdsClient{
		refreshFn: func(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
			return nil, &adsapi.APIError{StatusCode: 400, Code: "invalid_grant", Message: "授权已吊销", Retryable: false}
		},
	}
	svc := NewTokenService(repo, ads, cipher, RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})

	conn := activeConn(t, cipher, time.Minute)
	_, err := svc.EnsureValidToken(context.Background(), conn)

	re, ok := AsRefreshError(err)
	if !ok {
		t.Fatalf("error = %v, want *RefreshError", err)
	}
	if !re.NeedsReauth || re.Retryable {
		t.Errorf("NeedsReauth=%v Retryable=%v, want true/false", re.NeedsReauth, re.Retryable)
	}

	// 结构性拒绝立即停止，不继续重试
	if ads.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want 1", ads.refreshCalls)
	}
	if repo.failureWrites != 1 {
		t.Errorf("failureWrites = %d, want 1", repo.failureWrites)
	}
	if repo.lastStatus != model.ConnStatusExpired {
		t.Errorf("落库状态 = %s, want expired", repo.lastStatus)
	}
	if conn.Status != model.ConnStatusExpired {
		t.Errorf("conn.Status = %s, want expired", conn.Status)
	}
}

func TestTokenService_RefreshTransientFailureExhaustsRetries(t *testing.T) {
	cipher := testCipher(t)
	repo := &fakeConnRepo{}
	ads := &fakeAdsClient{
		refreshFn: func(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
			return nil, &adsapi.APIError{StatusCode: 429, Message: "限流", Retryable: true}
		},
	}
	svc := NewTokenService(repo, ads, cipher, RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})

	conn := activeConn(t, cipher, time.Minute)
	_, err := svc.EnsureValidToken(context.Background(), conn)

	re, ok := AsRefreshError(err)
	if !ok {
		t.Fatalf("error = %v, want *RefreshError", err)
	}
	if re.NeedsReauth || !re.Retryable {
		t.Errorf("NeedsReauth=%v Retryable=%v, want false/true", re.NeedsReauth, re.Retryable)
	}

	if ads.refreshCalls != 3 {
		t.Errorf("refreshCalls = %d, want 3", ads.refreshCalls)
	}
	if repo.failureWrites != 1 {
		t.Errorf("failureWrites = %d, want 1", repo.failureWrites)
	}
	if repo.lastStatus != model.ConnStatusNeedsRefresh {
		t.Errorf("落库状态 = %s, want needs_refresh", repo.lastStatus)
	}
}

func TestTokenService_CancelledContextStillPersistsFailure(t *testing.T) {
	cipher := testCipher(t)
	repo := &fakeConnRepo{}
	ads := &fakeAdsClient{
		refreshFn: func(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
			return nil, &adsapi.APIError{StatusCode: 429, Message: "限流", Retryable: true}
		},
	}
	// 退避比 ctx 超时长，第一次重试等待期间就会被取消
	svc := NewTokenService(repo, ads, cipher, RetryPolicy{MaxAttempts: 3, Backoff: time.Second})

	conn := activeConn(t, cipher, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.EnsureValidToken(ctx, conn)
	if err == nil {
		t.Fatal("EnsureValidToken() error = nil, want 刷新失败")
	}

	// 调用方超时也要把失败状态落库一次，且写入不能带已取消的 ctx
	if repo.failureWrites != 1 {
		t.Errorf("failureWrites = %d, want 1", repo.failureWrites)
	}
	if repo.lastWriteCtxErr != nil {
		t.Errorf("失败落库的 ctx 已取消: %v", repo.lastWriteCtxErr)
	}
	if repo.lastStatus != model.ConnStatusNeedsRefresh {
		t.Errorf("落库状态 = %s, want needs_refresh", repo.lastStatus)
	}
}
