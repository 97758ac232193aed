package task

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/internal/service"
	"magiops_v1_202608/pkg/adsapi"
)

// ==================== MetricsSyncTask 指标批量同步任务 ====================

// MetricsSyncTask 账户指标批量同步
// 按连接分组：一个连接下再多账户，token 也只刷新一次；
// 组内单账户抓取失败不影响兄弟账户，组间互不阻塞
type MetricsSyncTask struct {
	accountRepo  repository.AdAccountRepository
	connRepo     repository.ConnectionRepository
	snapshotRepo repository.SnapshotRepository
	tokenSvc     *service.TokenService
	ads          service.AdsClient

	// 并发控制
	groupConcurrency int           // 同时处理的连接组数
	fetchConcurrency int           // 组内同时抓取的账户数
	runBudget        time.Duration // 单轮软预算，超时后剩余账户留待下一轮

	cron     *cron.Cron
	cronSpec string
}

// NewMetricsSyncTask 创建指标同步任务
func NewMetricsSyncTask(
	accountRepo repository.AdAccountRepository,
	connRepo repository.ConnectionRepository,
	snapshotRepo repository.SnapshotRepository,
	tokenSvc *service.TokenService,
	ads service.AdsClient,
) *MetricsSyncTask {
	return &MetricsSyncTask{
		accountRepo:      accountRepo,
		connRepo:         connRepo,
		snapshotRepo:     snapshotRepo,
		tokenSvc:         tokenSvc,
		ads:              ads,
		groupConcurrency: 4,
		fetchConcurrency: 3,
		runBudget:        30 * time.Minute,
		cron:             cron.New(cron.WithSeconds()),
		cronSpec:         "0 0 * * * *", // 每小时整点
	}
}

// Start 启动定时任务
func (t *MetricsSyncTask) Start() {
	_, err := t.cron.AddFunc(t.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.runBudget)
		defer cancel()
		if _, err := t.RunBatchSync(ctx); err != nil {
			log.Printf("[MetricsSyncTask] 定时同步失败: %v", err)
		}
	})
	if err != nil {
		log.Printf("[MetricsSyncTask] 定时任务启动失败: %v", err)
		return
	}
	t.cron.Start()
	log.Println("[MetricsSyncTask] 已启动 (每小时)")
}

// Stop 停止任务
func (t *MetricsSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[MetricsSyncTask] 已停止")
}

// SetConcurrency 设置并发参数
func (t *MetricsSyncTask) SetConcurrency(groups, fetches int) {
	if groups > 0 {
		t.groupConcurrency = groups
	}
	if fetches > 0 {
		t.fetchConcurrency = fetches
	}
}

// SetRunBudget 设置单轮软预算
func (t *MetricsSyncTask) SetRunBudget(d time.Duration) {
	t.runBudget = d
}

// RunBatchSync 执行一轮批量同步
// 顶层只有账户列表加载失败才返回 error，其余失败全部记进结果明细
func (t *MetricsSyncTask) RunBatchSync(ctx context.Context) (*dto.BatchSyncResp, error) {
	return t.runBatch(ctx, nil)
}

// RunBatchSyncFor 只同步指定账户（手动触发）
func (t *MetricsSyncTask) RunBatchSyncFor(ctx context.Context, accountIDs []int64) (*dto.BatchSyncResp, error) {
	if len(accountIDs) == 0 {
		return t.runBatch(ctx, nil)
	}
	idSet := make(map[int64]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		idSet[id] = struct{}{}
	}
	return t.runBatch(ctx, idSet)
}

func (t *MetricsSyncTask) runBatch(ctx context.Context, only map[int64]struct{}) (*dto.BatchSyncResp, error) {
	start := time.Now()
	log.Println("[MetricsSyncTask] 开始批量同步...")

	// 1. 加载可同步账户（未归档且已绑定连接），这是唯一的致命失败点
	accounts, err := t.accountRepo.ListSyncable(ctx)
	if err != nil {
		log.Printf("[MetricsSyncTask] 账户列表加载失败: %v", err)
		return nil, err
	}
	if only != nil {
		filtered := accounts[:0]
		for i := range accounts {
			if _, ok := only[accounts[i].ID]; ok {
				filtered = append(filtered, accounts[i])
			}
		}
		accounts = filtered
	}
	if len(accounts) == 0 {
		log.Println("[MetricsSyncTask] 无可同步账户")
		return &dto.BatchSyncResp{Details: []dto.SyncDetail{}}, nil
	}

	// 2. 按连接分组，保证每个凭证每轮至多刷新一次
	groups := make(map[int64][]model.AdAccount)
	for i := range accounts {
		cid := *accounts[i].ConnectionID
		groups[cid] = append(groups[cid], accounts[i])
	}
	log.Printf("[MetricsSyncTask] %d 个账户，%d 个连接组", len(accounts), len(groups))

	// 3. 组间并发处理
	result := &dto.BatchSyncResp{Details: make([]dto.SyncDetail, 0, len(accounts))}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, t.groupConcurrency)

	for cid, group := range groups {
		// 软预算用尽：未处理的组保持原状，下一轮重试
		if ctx.Err() != nil {
			mu.Lock()
			for i := range group {
				result.Skipped++
				result.Details = append(result.Details, dto.SyncDetail{
					AccountID:  group[i].ID,
					ExternalID: group[i].ExternalID,
					Status:     "skipped",
				})
			}
			mu.Unlock()
			continue
		}
		sem <- struct{}{}

		wg.Add(1)
		go func(connID int64, accounts []model.AdAccount) {
			defer wg.Done()
			defer func() { <-sem }()

			details := t.syncGroup(ctx, connID, accounts)
			mu.Lock()
			for _, d := range details {
				switch d.Status {
				case model.SyncStatusSynced:
					result.Synced++
				case "skipped":
					result.Skipped++
				default:
					result.Errors++
				}
			}
			result.Details = append(result.Details, details...)
			mu.Unlock()
		}(cid, group)
	}

	wg.Wait()
	log.Printf("[MetricsSyncTask] 批量同步完成: 成功 %d, 失败 %d, 跳过 %d, 耗时 %s",
		result.Synced, result.Errors, result.Skipped, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// syncGroup 处理一个连接组：刷新一次 token，然后逐账户抓取
func (t *MetricsSyncTask) syncGroup(ctx context.Context, connID int64, accounts []model.AdAccount) []dto.SyncDetail {
	details := make([]dto.SyncDetail, 0, len(accounts))

	conn, err := t.connRepo.GetByID(ctx, connID)
	if err != nil {
		log.Printf("[MetricsSyncTask] 连接 %d 加载失败: %v", connID, err)
		for i := range accounts {
			t.markAccountError(ctx, &accounts[i], "授权连接加载失败")
			details = append(details, dto.SyncDetail{
				AccountID:  accounts[i].ID,
				ExternalID: accounts[i].ExternalID,
				Status:     model.SyncStatusError,
				Error:      "授权连接加载失败",
			})
		}
		return details
	}

	// 凭证守护：expired 状态也会乐观重试（refresh token 可能仍有效）
	token, err := t.tokenSvc.EnsureValidToken(ctx, conn)
	if err != nil {
		msg := "token 刷新失败，下轮重试"
		if re, ok := service.AsRefreshError(err); ok && re.NeedsReauth {
			msg = "需要重新授权"
		}
		log.Printf("[MetricsSyncTask] 连接 %d (%s) %s: %v", conn.ID, conn.Label, msg, err)
		for i := range accounts {
			t.markAccountError(ctx, &accounts[i], msg)
			details = append(details, dto.SyncDetail{
				AccountID:  accounts[i].ID,
				ExternalID: accounts[i].ExternalID,
				Status:     model.SyncStatusError,
				Error:      msg,
			})
		}
		// 组级结果落一次库（失败也记录）
		t.persistGroupResult(ctx, conn.ID, msg)
		return details
	}

	// 组内限并发抓取，失败互不传染
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, t.fetchConcurrency)
	groupErr := ""

	for i := range accounts {
		account := accounts[i]

		if ctx.Err() != nil {
			mu.Lock()
			details = append(details, dto.SyncDetail{
				AccountID:  account.ID,
				ExternalID: account.ExternalID,
				Status:     "skipped",
			})
			mu.Unlock()
			continue
		}
		sem <- struct{}{}

		wg.Add(1)
		go func(account model.AdAccount) {
			defer wg.Done()
			defer func() { <-sem }()

			d := t.syncAccount(ctx, &account, token)
			mu.Lock()
			if d.Status == model.SyncStatusError && groupErr == "" {
				groupErr = d.Error
			}
			details = append(details, d)
			mu.Unlock()
		}(account)
	}
	wg.Wait()

	// 组级 lastSyncAt/lastSyncError 每组只写一次，不随账户数膨胀
	t.persistGroupResult(ctx, conn.ID, groupErr)
	return details
}

// syncAccount 同步单个账户：指标落库 + 日快照 upsert + 尽力的列表缓存
// 抓取期间账户处于 syncing 状态，结束时落在 synced 或 error
func (t *MetricsSyncTask) syncAccount(ctx context.Context, account *model.AdAccount, token string) dto.SyncDetail {
	if err := t.accountRepo.UpdateSyncStatus(ctx, account.ID, model.SyncStatusSyncing, ""); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d 标记 syncing 失败: %v", account.ID, err)
	}

	metrics, err := t.ads.FetchMetrics(ctx, token, account.ExternalID)
	if err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d (%s) 指标抓取失败: %v", account.ID, account.ExternalID, err)
		t.markAccountError(ctx, account, err.Error())
		return dto.SyncDetail{
			AccountID:  account.ID,
			ExternalID: account.ExternalID,
			Status:     model.SyncStatusError,
			Error:      err.Error(),
		}
	}

	now := time.Now()

	// 1. 指标写回账户行
	if err = t.accountRepo.UpdateMetrics(ctx, account.ID, repository.MetricsUpdate{
		SpendTotal:    metrics.SpendTotal,
		AdCount:       metrics.AdCount,
		CampaignCount: metrics.CampaignCount,
		HealthStatus:  metrics.HealthStatus,
		BillingStatus: metrics.BillingStatus,
		SyncedAt:      now,
	}); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d 指标落库失败: %v", account.ID, err)
		return dto.SyncDetail{
			AccountID:  account.ID,
			ExternalID: account.ExternalID,
			Status:     model.SyncStatusError,
			Error:      err.Error(),
		}
	}

	// 2. 当日快照 upsert（account+date 唯一，当天重跑幂等覆盖）
	if err = t.snapshotRepo.Upsert(ctx, &model.DailySnapshot{
		AccountID:     account.ID,
		SnapshotDate:  now,
		SpendTotal:    metrics.SpendTotal,
		AdCount:       metrics.AdCount,
		CampaignCount: metrics.CampaignCount,
		HealthStatus:  metrics.HealthStatus,
		BillingStatus: metrics.BillingStatus,
	}); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d 快照写入失败: %v", account.ID, err)
	}

	// 3. 尽力刷新列表缓存，失败只记日志，不改变同步状态
	t.refreshListingCaches(ctx, account, token)

	return dto.SyncDetail{
		AccountID:  account.ID,
		ExternalID: account.ExternalID,
		Status:     model.SyncStatusSynced,
	}
}

// refreshListingCaches 离线查看用的层级列表缓存（软失败）
func (t *MetricsSyncTask) refreshListingCaches(ctx context.Context, account *model.AdAccount, token string) {
	now := time.Now()
	none := adsapi.ListingFilter{}

	if campaigns, err := t.ads.FetchCampaigns(ctx, token, account.ExternalID, none); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d campaign 缓存刷新失败: %v", account.ID, err)
	} else {
		t.storeCache(ctx, account.ID, model.ListingKindCampaign, campaigns, now)
	}

	if adGroups, err := t.ads.FetchAdGroups(ctx, token, account.ExternalID, none); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d ad group 缓存刷新失败: %v", account.ID, err)
	} else {
		t.storeCache(ctx, account.ID, model.ListingKindAdGroup, adGroups, now)
	}

	if keywords, err := t.ads.FetchKeywords(ctx, token, account.ExternalID, none); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d keyword 缓存刷新失败: %v", account.ID, err)
	} else {
		t.storeCache(ctx, account.ID, model.ListingKindKeyword, keywords, now)
	}
}

func (t *MetricsSyncTask) storeCache(ctx context.Context, accountID int64, kind string, data interface{}, at time.Time) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err = t.accountRepo.UpdateListingCache(ctx, accountID, kind, datatypes.JSON(raw), at); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d %s 缓存落库失败: %v", accountID, kind, err)
	}
}

func (t *MetricsSyncTask) markAccountError(ctx context.Context, account *model.AdAccount, msg string) {
	if err := t.accountRepo.UpdateSyncStatus(ctx, account.ID, model.SyncStatusError, msg); err != nil {
		log.Printf("[MetricsSyncTask] 账户 %d 错误状态落库失败: %v", account.ID, err)
	}
}

func (t *MetricsSyncTask) persistGroupResult(ctx context.Context, connID int64, syncErr string) {
	if err := t.connRepo.UpdateSyncResult(ctx, connID, time.Now(), syncErr); err != nil {
		log.Printf("[MetricsSyncTask] 连接 %d 同步结果落库失败: %v", connID, err)
	}
}
