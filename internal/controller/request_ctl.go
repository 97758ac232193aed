package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/middleware"
	"magiops_v1_202608/internal/model"
	"magiops_v1_202608/internal/service"
)

type RequestController struct {
	requestSvc *service.RequestService
}

func NewRequestController(requestSvc *service.RequestService) *RequestController {
	return &RequestController{requestSvc: requestSvc}
}

// ListRequests 获取工单列表
// @Summary 获取运营工单列表
// @Tags Request (运营工单)
// @Produce json
// @Param type query string false "类型 new_account/top_up/domain/other"
// @Param status query string false "状态 open/approved/rejected/done"
// @Param assignee_id query int false "处理人ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.RequestListResp "工单列表"
// @Router /api/requests [get]
func (c *RequestController) ListRequests(ctx *gin.Context) {
	var req dto.RequestListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	requests, total, err := c.requestSvc.ListRequests(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]dto.RequestResp, 0, len(requests))
	for i := range requests {
		list = append(list, toRequestResp(&requests[i]))
	}
	ctx.JSON(http.StatusOK, dto.RequestListResp{Total: total, List: list})
}

// GetRequest 获取工单详情
// @Summary 获取工单详情
// @Description 支持按数字 ID 或 trace_id 查询
// @Tags Request (运营工单)
// @Produce json
// @Param id path string true "工单ID 或 trace_id"
// @Success 200 {object} dto.RequestResp "工单详情"
// @Router /api/requests/{id} [get]
func (c *RequestController) GetRequest(ctx *gin.Context) {
	idStr := ctx.Param("id")

	var request *model.OpsRequest
	var err error
	if id, perr := strconv.ParseInt(idStr, 10, 64); perr == nil {
		request, err = c.requestSvc.GetRequest(ctx.Request.Context(), id)
	} else {
		request, err = c.requestSvc.GetRequestByTraceID(ctx.Request.Context(), idStr)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "工单不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toRequestResp(request))
}

// CreateRequest 提交工单
// @Summary 提交运营工单
// @Tags Request (运营工单)
// @Accept json
// @Produce json
// @Param request body dto.RequestCreateReq true "工单参数"
// @Success 200 {object} dto.RequestResp "新建的工单"
// @Router /api/requests [post]
func (c *RequestController) CreateRequest(ctx *gin.Context) {
	var req dto.RequestCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	request, err := c.requestSvc.CreateRequest(ctx.Request.Context(), req, middleware.GetUsername(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toRequestResp(request))
}

// UpdateRequest 更新工单
// @Summary 更新工单内容或指派处理人
// @Description 仅 open 状态的工单可修改
// @Tags Request (运营工单)
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Param request body dto.RequestUpdateReq true "更新参数"
// @Success 200 {object} dto.RequestResp "更新后的工单"
// @Router /api/requests/{id} [put]
func (c *RequestController) UpdateRequest(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的工单ID"})
		return
	}

	var req dto.RequestUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	request, err := c.requestSvc.UpdateRequest(ctx.Request.Context(), id, req, middleware.GetUsername(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "工单不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toRequestResp(request))
}

// ResolveRequest 流转工单
// @Summary 审批/驳回/完结工单
// @Tags Request (运营工单)
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Param request body dto.RequestResolveReq true "流转参数"
// @Success 200 {object} dto.RequestResp "流转后的工单"
// @Router /api/requests/{id}/resolve [post]
func (c *RequestController) ResolveRequest(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的工单ID"})
		return
	}

	var req dto.RequestResolveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	request, err := c.requestSvc.ResolveRequest(ctx.Request.Context(), id, req, middleware.GetUsername(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "工单不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toRequestResp(request))
}

// Stats 工单看板统计
// @Summary 工单状态统计
// @Tags Request (运营工单)
// @Produce json
// @Success 200 {object} dto.RequestStatsResp "按状态统计"
// @Router /api/requests/stats [get]
func (c *RequestController) Stats(ctx *gin.Context) {
	stats, err := c.requestSvc.Stats(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
