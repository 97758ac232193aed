package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/middleware"
	"magiops_v1_202608/internal/service"
	"magiops_v1_202608/pkg/adsapi"
)

type AccountController struct {
	accountSvc *service.AccountService
	metricsSvc *service.MetricsService
}

func NewAccountController(accountSvc *service.AccountService, metricsSvc *service.MetricsService) *AccountController {
	return &AccountController{
		accountSvc: accountSvc,
		metricsSvc: metricsSvc,
	}
}

// ==================== 档案 CRUD ====================

// ListAccounts 获取账户列表
// @Summary 获取广告账户列表
// @Description 分页查询账户，支持关键词、地区、同步状态筛选
// @Tags Account (广告账户)
// @Produce json
// @Param keyword query string false "名称/外部ID 关键词"
// @Param region query string false "地区"
// @Param sync_status query string false "同步状态 idle/syncing/synced/error"
// @Param connection_id query int false "连接ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.AccountListResp "账户列表"
// @Router /api/accounts [get]
func (c *AccountController) ListAccounts(ctx *gin.Context) {
	var req dto.AccountListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	accounts, total, err := c.accountSvc.ListAccounts(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toAccountList(accounts, total))
}

// GetAccount 获取账户详情
// @Summary 获取账户详情
// @Tags Account (广告账户)
// @Produce json
// @Param id path int true "账户ID"
// @Success 200 {object} dto.AccountResp "账户详情"
// @Failure 404 {object} map[string]string "账户不存在"
// @Router /api/accounts/{id} [get]
func (c *AccountController) GetAccount(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的账户ID"})
		return
	}

	account, err := c.accountSvc.GetAccount(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "账户不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toAccountResp(account))
}

// CreateAccount 新建账户
// @Summary 新建广告账户档案
// @Tags Account (广告账户)
// @Accept json
// @Produce json
// @Param request body dto.AccountCreateReq true "账户参数"
// @Success 200 {object} dto.AccountResp "新建的账户"
// @Router /api/accounts [post]
func (c *AccountController) CreateAccount(ctx *gin.Context) {
	var req dto.AccountCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	account, err := c.accountSvc.CreateAccount(ctx.Request.Context(), req, middleware.GetUsername(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toAccountResp(account))
}

// UpdateAccount 更新账户档案
// @Summary 更新账户档案
// @Tags Account (广告账户)
// @Accept json
// @Produce json
// @Param id path int true "账户ID"
// @Param request body dto.AccountUpdateReq true "更新参数"
// @Success 200 {object} dto.AccountResp "更新后的账户"
// @Router /api/accounts/{id} [put]
func (c *AccountController) UpdateAccount(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的账户ID"})
		return
	}

	var req dto.AccountUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	account, err := c.accountSvc.UpdateAccount(ctx.Request.Context(), id, req, middleware.GetUsername(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "账户不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toAccountResp(account))
}

// ArchiveAccount 归档账户
// @Summary 归档账户
// @Description 软删除，批量同步自动跳过，历史快照保留
// @Tags Account (广告账户)
// @Produce json
// @Param id path int true "账户ID"
// @Success 200 {object} map[string]string "{"message": "账户已归档"}"
// @Router /api/accounts/{id} [delete]
func (c *AccountController) ArchiveAccount(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的账户ID"})
		return
	}

	if err := c.accountSvc.ArchiveAccount(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "账户不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "账户已归档"})
}

// ListSnapshots 查询日快照
// @Summary 查询账户日快照
// @Description 按日期范围查询历史快照，默认最近 30 天
// @Tags Account (广告账户)
// @Produce json
// @Param id path int true "账户ID"
// @Param from query string false "起始日期 YYYY-MM-DD"
// @Param to query string false "截止日期 YYYY-MM-DD"
// @Success 200 {object} dto.SnapshotListResp "快照列表"
// @Router /api/accounts/{id}/snapshots [get]
func (c *AccountController) ListSnapshots(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的账户ID"})
		return
	}

	var req dto.SnapshotListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	snapshots, err := c.accountSvc.ListSnapshots(ctx.Request.Context(), id, req.From, req.To)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "账户不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]dto.SnapshotResp, 0, len(snapshots))
	for i := range snapshots {
		list = append(list, toSnapshotResp(&snapshots[i]))
	}
	ctx.JSON(http.StatusOK, dto.SnapshotListResp{Total: int64(len(list)), List: list})
}

// ==================== 实时读取（缓存兜底） ====================

// GetMetrics 读取账户指标
// @Summary 读取账户实时指标
// @Description 实时优先，第三方故障时返回最近一次同步的指标并标记降级原因
// @Tags Account (广告账户)
// @Produce json
// @Param id path int true "账户ID"
// @Success 200 {object} dto.FallbackResp "指标（可能来自缓存）"
// @Router /api/accounts/{id}/metrics [get]
func (c *AccountController) GetMetrics(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的账户ID"})
		return
	}

	res, err := c.metricsSvc.GetAccountMetrics(ctx.Request.Context(), id)
	if err != nil {
		c.renderReadError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toFallbackResp(res))
}

// GetCampaigns 读取 campaign 列表
// @Summary 读取 campaign 列表
// @Description 实时优先、缓存兜底；带过滤条件的结果不会写入缓存
// @Tags Account (广告账户)
// @Produce json
// @Param id path int true "账户ID"
// @Success 200 {object} dto.FallbackResp "campaign 列表（可能来自缓存）"
// @Router /api/accounts/{id}/campaigns [get]
func (c *AccountController) GetCampaigns(ctx *gin.Context) {
	c.getListing(ctx, c.metricsSvc.GetCampaigns)
}

// GetAdGroups 读取 ad group 列表
// @Summary 读取 ad group 列表
// @Tags Account (广告账户)
// @Produce json
// @Param id path int true "账户ID"
// @Param campaign_id query string false "按 campaign 过滤"
// @Success 200 {object} dto.FallbackResp "ad group 列表（可能来自缓存）"
// @Router /api/accounts/{id}/ad_groups [get]
func (c *AccountController) GetAdGroups(ctx *gin.Context) {
	c.getListing(ctx, c.metricsSvc.GetAdGroups)
}

// GetKeywords 读取 keyword 列表
// @Summary 读取 keyword 列表
// @Tags Account (广告账户)
// @Produce json
// @Param id path int true "账户ID"
// @Param campaign_id query string false "按 campaign 过滤"
// @Param ad_group_id query string false "按 ad group 过滤"
// @Success 200 {object} dto.FallbackResp "keyword 列表（可能来自缓存）"
// @Router /api/accounts/{id}/keywords [get]
func (c *AccountController) GetKeywords(ctx *gin.Context) {
	c.getListing(ctx, c.metricsSvc.GetKeywords)
}

type listingFn func(ctx context.Context, accountID int64, filter adsapi.ListingFilter) (*service.FallbackResult, error)

func (c *AccountController) getListing(ctx *gin.Context, fn listingFn) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的账户ID"})
		return
	}

	var req dto.ListingQueryReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	res, err := fn(ctx.Request.Context(), id, adsapi.ListingFilter{
		CampaignID: req.CampaignID,
		AdGroupID:  req.AdGroupID,
	})
	if err != nil {
		c.renderReadError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toFallbackResp(res))
}

// renderReadError 读路径错误分层：未授权/需重授权给 401 语义，其余 500
func (c *AccountController) renderReadError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "账户不存在"})
	case errors.Is(err, service.ErrNoConnection):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "needs_reauth": true})
	default:
		if re, ok := service.AsRefreshError(err); ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "needs_reauth": re.NeedsReauth})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
