package task

import (
	"context"
	"log"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/internal/service"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
// 管理范围：凭证保活、指标批量同步、域名验证
type TaskManager struct {
	tokenTask  *TokenTask
	syncTask   *MetricsSyncTask
	domainTask *DomainVerifyTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	// Repositories
	AccountRepo  repository.AdAccountRepository
	ConnRepo     repository.ConnectionRepository
	SnapshotRepo repository.SnapshotRepository

	// Services
	TokenService  *service.TokenService
	DomainService *service.DomainService
	AdsClient     service.AdsClient
}

// TaskManagerConfig 任务管理器配置
// 一次解析、启动后只读，不做运行期开关
type TaskManagerConfig struct {
	// 凭证保活
	TokenEnabled bool

	// 指标同步
	SyncEnabled          bool
	SyncGroupConcurrency int
	SyncFetchConcurrency int

	// 域名验证
	DomainEnabled bool
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		TokenEnabled:         true,
		SyncEnabled:          true,
		SyncGroupConcurrency: 4,
		SyncFetchConcurrency: 3,
		DomainEnabled:        true,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	// 凭证保活任务
	if cfg.TokenEnabled && deps.TokenService != nil {
		tm.tokenTask = NewTokenTask(deps.ConnRepo, deps.TokenService)
	}

	// 指标批量同步任务
	if cfg.SyncEnabled && deps.TokenService != nil && deps.AdsClient != nil {
		tm.syncTask = NewMetricsSyncTask(
			deps.AccountRepo,
			deps.ConnRepo,
			deps.SnapshotRepo,
			deps.TokenService,
			deps.AdsClient,
		)
		tm.syncTask.SetConcurrency(cfg.SyncGroupConcurrency, cfg.SyncFetchConcurrency)
	}

	// 域名验证任务
	if cfg.DomainEnabled && deps.DomainService != nil {
		tm.domainTask = NewDomainVerifyTask(deps.DomainService)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() {
	log.Println("[TaskManager] 正在启动后台任务...")

	if tm.tokenTask != nil {
		tm.tokenTask.Start()
	}
	if tm.syncTask != nil {
		tm.syncTask.Start()
	}
	if tm.domainTask != nil {
		tm.domainTask.Start()
	}

	log.Println("[TaskManager] 后台任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止后台任务...")

	if tm.tokenTask != nil {
		tm.tokenTask.Stop()
	}
	if tm.syncTask != nil {
		tm.syncTask.Stop()
	}
	if tm.domainTask != nil {
		tm.domainTask.Stop()
	}

	log.Println("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerBatchSync 触发一轮批量同步，account_ids 为空表示全量
func (tm *TaskManager) TriggerBatchSync(ctx context.Context, accountIDs []int64) (*dto.BatchSyncResp, error) {
	if tm.syncTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.syncTask.RunBatchSyncFor(ctx, accountIDs)
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"token":  tm.tokenTask != nil,
		"sync":   tm.syncTask != nil,
		"domain": tm.domainTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
