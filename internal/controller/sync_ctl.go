package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/task"
)

type SyncController struct {
	taskManager *task.TaskManager
}

func NewSyncController(taskManager *task.TaskManager) *SyncController {
	return &SyncController{taskManager: taskManager}
}

// RunBatchSync 触发批量同步
// @Summary 触发一轮指标批量同步
// @Description 外部调度器按固定间隔调用；account_ids 为空表示全量。
// @Description 按连接分组同步，单账户失败不影响兄弟账户，返回逐账户明细
// @Tags Sync (批量同步)
// @Accept json
// @Produce json
// @Param X-Cron-Secret header string true "调度共享密钥"
// @Param request body dto.SyncRunReq false "可选的账户范围"
// @Success 200 {object} dto.BatchSyncResp "同步结果"
// @Failure 401 {object} map[string]string "密钥无效"
// @Failure 500 {object} map[string]string "账户列表加载失败"
// @Router /api/sync/run [post]
func (c *SyncController) RunBatchSync(ctx *gin.Context) {
	var req dto.SyncRunReq
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
			return
		}
	}

	result, err := c.taskManager.TriggerBatchSync(ctx.Request.Context(), req.AccountIDs)
	if err != nil {
		// 只有账户列表加载失败等致命错误才会走到这里
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Status 查询后台任务状态
// @Summary 查询后台任务状态
// @Tags Sync (批量同步)
// @Produce json
// @Success 200 {object} map[string]bool "任务开关状态"
// @Router /api/sync/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.taskManager.Status())
}
