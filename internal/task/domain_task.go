package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"magiops_v1_202608/internal/service"
)

// DomainVerifyTask 落地页域名验证任务
// 定期复查 pending 域名的解析是否生效
type DomainVerifyTask struct {
	domainSvc *service.DomainService
	cron      *cron.Cron
}

// NewDomainVerifyTask 创建域名验证任务
func NewDomainVerifyTask(domainSvc *service.DomainService) *DomainVerifyTask {
	return &DomainVerifyTask{
		domainSvc: domainSvc,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务
func (t *DomainVerifyTask) Start() {
	// 每 15 分钟复查一轮
	_, err := t.cron.AddFunc("0 0/15 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		verified, failed := t.domainSvc.VerifyPending(ctx)
		if verified+failed > 0 {
			log.Printf("[DomainVerifyTask] 本轮验证完成: 生效 %d, 未生效 %d", verified, failed)
		}
	})
	if err != nil {
		log.Printf("[DomainVerifyTask] 定时任务启动失败: %v", err)
		return
	}
	t.cron.Start()
	log.Println("[DomainVerifyTask] 已启动 (每15分钟)")
}

// Stop 停止任务
func (t *DomainVerifyTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[DomainVerifyTask] 已停止")
}
