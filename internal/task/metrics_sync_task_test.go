package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"

	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/internal/service"
	"magiops_v1_202608/pkg/adsapi"
	"magiops_v1_202608/pkg/crypto"
)

// ==================== 测试桩 ====================

type stubAccountRepo struct {
	repository.AdAccountRepository

	accounts []model.AdAccount

	mu            sync.Mutex
	metricsWrites map[int64]int
	statusWrites  map[int64]string
	statusHistory map[int64][]string
	cacheWrites   int
}

func newStubAccountRepo(accounts []model.AdAccount) *stubAccountRepo {
	return &stubAccountRepo{
		accounts:      accounts,
		metricsWrites: make(map[int64]int),
		statusWrites:  make(map[int64]string),
		statusHistory: make(map[int64][]string),
	}
}

func (s *stubAccountRepo) ListSyncable(ctx context.Context) ([]model.AdAccount, error) {
	out := make([]model.AdAccount, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func (s *stubAccountRepo) UpdateMetrics(ctx context.Context, id int64, m repository.MetricsUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metricsWrites[id]++
	return nil
}

func (s *stubAccountRepo) UpdateSyncStatus(ctx context.Context, id int64, status, syncErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusWrites[id] = syncErr
	s.statusHistory[id] = append(s.statusHistory[id], status)
	return nil
}

func (s *stubAccountRepo) UpdateListingCache(ctx context.Context, id int64, kind string, data datatypes.JSON, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheWrites++
	return nil
}

type stubConnRepo struct {
	repository.ConnectionRepository

	conns map[int64]*model.Connection

	mu              sync.Mutex
	tokenWrites     int
	failureWrites   int
	syncResultCalls map[int64]int
	syncResultErrs  map[int64]string
}

func newStubConnRepo(conns ...*model.Connection) *stubConnRepo {
	m := make(map[int64]*model.Connection, len(conns))
	for _, c := range conns {
		m[c.ID] = c
	}
	return &stubConnRepo{
		conns:           m,
		syncResultCalls: make(map[int64]int),
		syncResultErrs:  make(map[int64]string),
	}
}

func (s *stubConnRepo) GetByID(ctx context.Context, id int64) (*model.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[id]
	if !ok {
		return nil, errors.New("连接不存在")
	}
	clone := *conn
	return &clone, nil
}

func (s *stubConnRepo) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenWrites++
	return nil
}

func (s *stubConnRepo) UpdateTokenFailure(ctx context.Context, id int64, status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureWrites++
	if conn, ok := s.conns[id]; ok {
		conn.Status = status
	}
	return nil
}

func (s *stubConnRepo) UpdateSyncResult(ctx context.Context, id int64, syncedAt time.Time, syncErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncResultCalls[id]++
	s.syncResultErrs[id] = syncErr
	return nil
}

type stubSnapshotRepo struct {
	repository.SnapshotRepository

	mu      sync.Mutex
	upserts []model.DailySnapshot
}

func (s *stubSnapshotRepo) Upsert(ctx context.Context, snap *model.DailySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, *snap)
	return nil
}

// stubAds 可编程广告平台客户端（并发安全）
type stubAds struct {
	mu           sync.Mutex
	refreshCalls int
	fetchCalls   int

	refreshErr  error
	failMetrics map[string]error // 按 externalID 定向失败
}

func (s *stubAds) RefreshToken(ctx context.Context, refreshToken string) (*adsapi.TokenGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return &adsapi.TokenGrant{AccessToken: "fresh-" + refreshToken, ExpiresIn: 3600}, nil
}

func (s *stubAds) FetchMetrics(ctx context.Context, accessToken, externalID string) (*adsapi.AccountMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if err, ok := s.failMetrics[externalID]; ok {
		return nil, err
	}
	return &adsapi.AccountMetrics{ExternalID: externalID, SpendTotal: 100, AdCount: 2, CampaignCount: 1}, nil
}

func (s *stubAds) FetchCampaigns(ctx context.Context, accessToken, externalID string, f adsapi.ListingFilter) ([]adsapi.Campaign, error) {
	return []adsapi.Campaign{{ID: "c1"}}, nil
}

func (s *stubAds) FetchAdGroups(ctx context.Context, accessToken, externalID string, f adsapi.ListingFilter) ([]adsapi.AdGroup, error) {
	return []adsapi.AdGroup{{ID: "g1"}}, nil
}

func (s *stubAds) FetchKeywords(ctx context.Context, accessToken, externalID string, f adsapi.ListingFilter) ([]adsapi.Keyword, error) {
	return []adsapi.Keyword{{ID: "k1"}}, nil
}

// ==================== 测试辅助 ====================

func syncTestCipher(t *testing.T) *crypto.TokenCipher {
	t.Helper()
	cipher, err := crypto.NewTokenCipher("sync-task-test")
	if err != nil {
		t.Fatalf("创建加密器失败: %v", err)
	}
	return cipher
}

func encrypted(t *testing.T, cipher *crypto.TokenCipher, plain string) string {
	t.Helper()
	enc, err := cipher.Encrypt(plain)
	if err != nil {
		t.Fatalf("加密失败: %v", err)
	}
	return enc
}

func testConn(t *testing.T, cipher *crypto.TokenCipher, id int64, status string) *model.Connection {
	t.Helper()
	conn := &model.Connection{
		Label:          "连接",
		AccessToken:    encrypted(t, cipher, "access"),
		RefreshToken:   encrypted(t, cipher, "refresh"),
		TokenExpiresAt: time.Now().Add(time.Hour),
		Status:         status,
	}
	conn.ID = id
	return conn
}

func testAccount(id int64, externalID string, connID int64) model.AdAccount {
	account := model.AdAccount{ExternalID: externalID, ConnectionID: &connID}
	account.ID = id
	return account
}

func newSyncTask(accountRepo *stubAccountRepo, connRepo *stubConnRepo, snapRepo *stubSnapshotRepo, ads *stubAds, cipher *crypto.TokenCipher) *MetricsSyncTask {
	tokenSvc := service.NewTokenService(connRepo, ads, cipher, service.RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond})
	return NewMetricsSyncTask(accountRepo, connRepo, snapRepo, tokenSvc, ads)
}

// ==================== 批量同步 ====================

func TestMetricsSyncTask_OneRefreshPerConnection(t *testing.T) {
	cipher := syncTestCipher(t)

	// 两个连接都处于 needs_refresh，共 4 个账户
	connRepo := newStubConnRepo(
		testConn(t, cipher, 1, model.ConnStatusNeedsRefresh),
		testConn(t, cipher, 2, model.ConnStatusNeedsRefresh),
	)
	accountRepo := newStubAccountRepo([]model.AdAccount{
		testAccount(11, "ext-a", 1),
		testAccount(12, "ext-b", 1),
		testAccount(13, "ext-c", 1),
		testAccount(21, "ext-d", 2),
	})
	snapRepo := &stubSnapshotRepo{}
	ads := &stubAds{}

	task := newSyncTask(accountRepo, connRepo, snapRepo, ads, cipher)
	result, err := task.RunBatchSync(context.Background())
	if err != nil {
		t.Fatalf("RunBatchSync() error = %v", err)
	}

	if result.Synced != 4 || result.Errors != 0 || result.Skipped != 0 {
		t.Errorf("结果 = %d/%d/%d, want 4/0/0", result.Synced, result.Errors, result.Skipped)
	}

	// 分组保证：连接再多账户也只刷新一次
	if ads.refreshCalls != 2 {
		t.Errorf("refreshCalls = %d, want 2", ads.refreshCalls)
	}
	if connRepo.tokenWrites != 2 {
		t.Errorf("tokenWrites = %d, want 2", connRepo.tokenWrites)
	}

	// 组级同步结果每组只落一次库
	for _, id := range []int64{1, 2} {
		if connRepo.syncResultCalls[id] != 1 {
			t.Errorf("连接 %d syncResultCalls = %d, want 1", id, connRepo.syncResultCalls[id])
		}
	}

	// 每个成功账户落一条当日快照
	if len(snapRepo.upserts) != 4 {
		t.Errorf("快照条数 = %d, want 4", len(snapRepo.upserts))
	}
}

func TestMetricsSyncTask_PartialFailureIsolation(t *testing.T) {
	cipher := syncTestCipher(t)

	connRepo := newStubConnRepo(testConn(t, cipher, 1, model.ConnStatusActive))
	accountRepo := newStubAccountRepo([]model.AdAccount{
		testAccount(11, "ext-a", 1),
		testAccount(12, "ext-b", 1),
		testAccount(13, "ext-c", 1),
	})
	snapRepo := &stubSnapshotRepo{}
	ads := &stubAds{
		failMetrics: map[string]error{
			"ext-b": &adsapi.APIError{StatusCode: 500, Message: "平台内部错误", Retryable: true},
		},
	}

	task := newSyncTask(accountRepo, connRepo, snapRepo, ads, cipher)
	result, err := task.RunBatchSync(context.Background())
	if err != nil {
		t.Fatalf("RunBatchSync() error = %v", err)
	}

	// 单账户失败不传染兄弟账户
	if result.Synced != 2 || result.Errors != 1 {
		t.Errorf("结果 = %d 成功 %d 失败, want 2/1", result.Synced, result.Errors)
	}

	accountRepo.mu.Lock()
	defer accountRepo.mu.Unlock()
	if accountRepo.metricsWrites[11] != 1 || accountRepo.metricsWrites[13] != 1 {
		t.Error("成功账户未落库指标")
	}
	if accountRepo.metricsWrites[12] != 0 {
		t.Error("失败账户不应落库指标")
	}
	if !strings.Contains(accountRepo.statusWrites[12], "平台内部错误") {
		t.Errorf("失败账户错误信息 = %q", accountRepo.statusWrites[12])
	}

	// 组级错误带上了第一个账户级失败
	if connRepo.syncResultErrs[1] == "" {
		t.Error("组级同步错误应记录账户级失败")
	}
}

func TestMetricsSyncTask_MarksSyncingDuringFetch(t *testing.T) {
	cipher := syncTestCipher(t)

	connRepo := newStubConnRepo(testConn(t, cipher, 1, model.ConnStatusActive))
	accountRepo := newStubAccountRepo([]model.AdAccount{
		testAccount(11, "ext-a", 1),
		testAccount(12, "ext-b", 1),
	})
	snapRepo := &stubSnapshotRepo{}
	ads := &stubAds{
		failMetrics: map[string]error{
			"ext-b": &adsapi.APIError{StatusCode: 500, Message: "平台内部错误", Retryable: true},
		},
	}

	task := newSyncTask(accountRepo, connRepo, snapRepo, ads, cipher)
	if _, err := task.RunBatchSync(context.Background()); err != nil {
		t.Fatalf("RunBatchSync() error = %v", err)
	}

	accountRepo.mu.Lock()
	defer accountRepo.mu.Unlock()

	// 抓取前先进入 syncing；成功账户的 synced 由指标落库一并写入
	if got := accountRepo.statusHistory[11]; len(got) != 1 || got[0] != model.SyncStatusSyncing {
		t.Errorf("成功账户状态轨迹 = %v, want [syncing]", got)
	}
	if got := accountRepo.statusHistory[12]; len(got) != 2 ||
		got[0] != model.SyncStatusSyncing || got[1] != model.SyncStatusError {
		t.Errorf("失败账户状态轨迹 = %v, want [syncing error]", got)
	}
}

func TestMetricsSyncTask_RefreshFailureMarksWholeGroup(t *testing.T) {
	cipher := syncTestCipher(t)

	// 连接 1 刷新被平台明确拒绝；连接 2 正常
	connRepo := newStubConnRepo(
		testConn(t, cipher, 1, model.ConnStatusNeedsRefresh),
		testConn(t, cipher, 2, model.ConnStatusActive),
	)
	accountRepo := newStubAccountRepo([]model.AdAccount{
		testAccount(11, "ext-a", 1),
		testAccount(12, "ext-b", 1),
		testAccount(21, "ext-c", 2),
	})
	snapRepo := &stubSnapshotRepo{}
	ads := &stubAds{
		refreshErr: &adsapi.APIError{StatusCode: 400, Code: "invalid_grant", Retryable: false},
	}

	task := newSyncTask(accountRepo, connRepo, snapRepo, ads, cipher)
	result, err := task.RunBatchSync(context.Background())
	if err != nil {
		t.Fatalf("RunBatchSync() error = %v", err)
	}

	if result.Synced != 1 || result.Errors != 2 {
		t.Errorf("结果 = %d 成功 %d 失败, want 1/2", result.Synced, result.Errors)
	}

	// 整组账户带上"需要重新授权"标记
	accountRepo.mu.Lock()
	for _, id := range []int64{11, 12} {
		if accountRepo.statusWrites[id] != "需要重新授权" {
			t.Errorf("账户 %d 错误信息 = %q, want 需要重新授权", id, accountRepo.statusWrites[id])
		}
	}
	accountRepo.mu.Unlock()

	// 刷新失败也只落一次组级结果
	if connRepo.syncResultCalls[1] != 1 {
		t.Errorf("连接 1 syncResultCalls = %d, want 1", connRepo.syncResultCalls[1])
	}
	// 凭证失败状态由 TokenService 落库，且只落一次
	if connRepo.failureWrites != 1 {
		t.Errorf("failureWrites = %d, want 1", connRepo.failureWrites)
	}
	if connRepo.conns[1].Status != model.ConnStatusExpired {
		t.Errorf("连接 1 状态 = %s, want expired", connRepo.conns[1].Status)
	}
}

func TestMetricsSyncTask_ExpiredConnectionRecovers(t *testing.T) {
	cipher := syncTestCipher(t)

	// expired 状态乐观重试：refresh token 实际仍有效
	connRepo := newStubConnRepo(testConn(t, cipher, 1, model.ConnStatusExpired))
	accountRepo := newStubAccountRepo([]model.AdAccount{testAccount(11, "ext-a", 1)})
	snapRepo := &stubSnapshotRepo{}
	ads := &stubAds{}

	task := newSyncTask(accountRepo, connRepo, snapRepo, ads, cipher)
	result, err := task.RunBatchSync(context.Background())
	if err != nil {
		t.Fatalf("RunBatchSync() error = %v", err)
	}

	if result.Synced != 1 {
		t.Errorf("Synced = %d, want 1", result.Synced)
	}
	if ads.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, want 1", ads.refreshCalls)
	}
	if connRepo.tokenWrites != 1 {
		t.Errorf("tokenWrites = %d, want 1", connRepo.tokenWrites)
	}
}

func TestMetricsSyncTask_CancelledContextSkips(t *testing.T) {
	cipher := syncTestCipher(t)

	connRepo := newStubConnRepo(testConn(t, cipher, 1, model.ConnStatusActive))
	accountRepo := newStubAccountRepo([]model.AdAccount{
		testAccount(11, "ext-a", 1),
		testAccount(12, "ext-b", 1),
	})
	snapRepo := &stubSnapshotRepo{}
	ads := &stubAds{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 预算已耗尽

	task := newSyncTask(accountRepo, connRepo, snapRepo, ads, cipher)
	result, err := task.RunBatchSync(ctx)
	if err != nil {
		t.Fatalf("RunBatchSync() error = %v", err)
	}

	// 未处理的账户保持原状，留待下一轮
	if result.Skipped != 2 || result.Synced != 0 || result.Errors != 0 {
		t.Errorf("结果 = %d/%d/%d, want 0 成功 0 失败 2 跳过", result.Synced, result.Errors, result.Skipped)
	}
	if ads.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0", ads.fetchCalls)
	}
	accountRepo.mu.Lock()
	defer accountRepo.mu.Unlock()
	if len(accountRepo.statusWrites) != 0 {
		t.Error("跳过的账户不应写任何状态")
	}
}

func TestMetricsSyncTask_RunBatchSyncFor_FiltersAccounts(t *testing.T) {
	cipher := syncTestCipher(t)

	connRepo := newStubConnRepo(testConn(t, cipher, 1, model.ConnStatusActive))
	accountRepo := newStubAccountRepo([]model.AdAccount{
		testAccount(11, "ext-a", 1),
		testAccount(12, "ext-b", 1),
		testAccount(13, "ext-c", 1),
	})
	snapRepo := &stubSnapshotRepo{}
	ads := &stubAds{}

	task := newSyncTask(accountRepo, connRepo, snapRepo, ads, cipher)
	result, err := task.RunBatchSyncFor(context.Background(), []int64{12})
	if err != nil {
		t.Fatalf("RunBatchSyncFor() error = %v", err)
	}

	if result.Synced != 1 {
		t.Errorf("Synced = %d, want 1", result.Synced)
	}
	accountRepo.mu.Lock()
	defer accountRepo.mu.Unlock()
	if accountRepo.metricsWrites[11] != 0 || accountRepo.metricsWrites[13] != 0 {
		t.Error("未指定的账户不应参与同步")
	}
}
