package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/repository"
	"magiops_v1_202608/internal/service"
)

// TokenTask 凭证保活任务
// 定期扫描临期/needs_refresh 的连接并主动续期，
// 让批量同步和交互式读取大概率命中已续期的 token
type TokenTask struct {
	connRepo repository.ConnectionRepository
	tokenSvc *service.TokenService
	cron     *cron.Cron

	// 控制并发探测的数量，防止把刷新端点打满
	concurrencyLimit int
	sleepTime        time.Duration
	lookahead        time.Duration
}

// NewTokenTask 创建保活任务
func NewTokenTask(connRepo repository.ConnectionRepository, tokenSvc *service.TokenService) *TokenTask {
	return &TokenTask{
		connRepo:         connRepo,
		tokenSvc:         tokenSvc,
		cron:             cron.New(cron.WithSeconds()), // 支持秒级控制
		concurrencyLimit: 10,
		sleepTime:        50 * time.Millisecond, // 每个协程启动间隔，平滑波峰
		lookahead:        30 * time.Minute,      // 提前量大于刷新缓冲，留足余量
	}
}

// Start 启动定时任务
func (t *TokenTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[TokenTask] 服务启动，正在执行首次凭证检查...")
		t.refreshJob(ctx)
	}()

	// 定时策略
	_, err := t.cron.AddFunc("0 0/40 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.refreshJob(ctx)
	})
	if err != nil {
		log.Fatalf("无法启动凭证保活任务: %v", err)
	}

	t.cron.Start()
	log.Println("[TokenTask] 凭证保活任务已启动 (每40分钟检查一次)")
}

// Stop 停止任务
func (t *TokenTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[TokenTask] 已停止")
}

// refreshJob 扫描并续期临期连接
func (t *TokenTask) refreshJob(ctx context.Context) {
	conns, err := t.connRepo.FindExpiring(ctx, t.lookahead)
	if err != nil {
		log.Printf("[TokenTask] 临期连接查询失败: %v", err)
		return
	}
	if len(conns) == 0 {
		return
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	log.Printf("[TokenTask] 开始处理 %d 个连接的续期，并发上限: %d", len(conns), t.concurrencyLimit)

	for i := range conns {
		select {
		case <-ctx.Done():
			log.Println("[TokenTask] 任务超时停止")
			wg.Wait()
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		time.Sleep(t.sleepTime)

		go func(conn model.Connection) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := t.tokenSvc.EnsureValidToken(ctx, &conn); err != nil {
				// 失败状态已由 TokenService 落库，这里只记日志
				log.Printf("[TokenTask] 连接 [%s] 续期失败: %v", conn.Label, err)
			}
		}(conns[i])
	}

	wg.Wait()
	log.Println("[TokenTask] 本轮凭证续期任务完成")
}
