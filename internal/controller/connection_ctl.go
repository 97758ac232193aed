package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/middleware"
	"magiops_v1_202608/internal/service"
)

type ConnectionController struct {
	connSvc    *service.ConnectionService
	connectSvc *service.ConnectService
}

func NewConnectionController(connSvc *service.ConnectionService, connectSvc *service.ConnectService) *ConnectionController {
	return &ConnectionController{
		connSvc:    connSvc,
		connectSvc: connectSvc,
	}
}

// ListConnections 获取连接列表
// @Summary 获取授权连接列表
// @Description 分页查询授权连接，支持按状态、备注筛选
// @Tags Connection (授权连接)
// @Produce json
// @Param status query string false "状态筛选 active/needs_refresh/expired"
// @Param label query string false "备注关键词"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ConnectionListResp "连接列表"
// @Failure 400 {object} map[string]string "参数错误"
// @Router /api/connections [get]
func (c *ConnectionController) ListConnections(ctx *gin.Context) {
	var req dto.ConnectionListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	conns, total, err := c.connSvc.ListConnections(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toConnectionList(conns, total))
}

// GetConnection 获取连接详情
// @Summary 获取连接详情
// @Description 根据 ID 查询连接与名下账户
// @Tags Connection (授权连接)
// @Produce json
// @Param id path int true "连接ID"
// @Success 200 {object} dto.ConnectionResp "连接详情"
// @Failure 404 {object} map[string]string "连接不存在"
// @Router /api/connections/{id} [get]
func (c *ConnectionController) GetConnection(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的连接ID"})
		return
	}

	conn, err := c.connSvc.GetConnection(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "连接不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toConnectionResp(conn))
}

// CreateConnection 手工录入连接
// @Summary 手工录入连接
// @Description 迁移已有 refresh token 时使用，不走授权页
// @Tags Connection (授权连接)
// @Accept json
// @Produce json
// @Param request body dto.ConnectionCreateReq true "连接参数"
// @Success 200 {object} dto.ConnectionResp "新建的连接"
// @Failure 400 {object} map[string]string "参数错误"
// @Router /api/connections [post]
func (c *ConnectionController) CreateConnection(ctx *gin.Context) {
	var req dto.ConnectionCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	conn, err := c.connSvc.CreateManual(ctx.Request.Context(), req, middleware.GetUsername(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toConnectionResp(conn))
}

// UpdateConnection 更新连接备注
// @Summary 更新连接备注
// @Tags Connection (授权连接)
// @Accept json
// @Produce json
// @Param id path int true "连接ID"
// @Param request body dto.ConnectionUpdateReq true "更新参数"
// @Success 200 {object} map[string]string "{"message": "更新成功"}"
// @Router /api/connections/{id} [put]
func (c *ConnectionController) UpdateConnection(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的连接ID"})
		return
	}

	var req dto.ConnectionUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	if err := c.connSvc.UpdateLabel(ctx.Request.Context(), id, req.Label); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "连接不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "更新成功"})
}

// Disconnect 断开授权
// @Summary 断开授权
// @Description 软删连接并解绑名下账户，账户保留缓存数据
// @Tags Connection (授权连接)
// @Produce json
// @Param id path int true "连接ID"
// @Success 200 {object} map[string]string "{"message": "已断开授权"}"
// @Router /api/connections/{id} [delete]
func (c *ConnectionController) Disconnect(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的连接ID"})
		return
	}

	if err := c.connectSvc.Disconnect(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "连接不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "已断开授权"})
}

// Login 生成授权跳转链接
// @Summary 生成授权跳转链接
// @Description 新建或重新授权连接，返回带 PKCE 参数的平台授权 URL
// @Tags Connection (授权连接)
// @Produce json
// @Param connection_id query int false "既有连接ID，0 表示新建"
// @Param label query string false "新建连接的备注"
// @Success 200 {object} dto.ConnectLoginResp "授权链接"
// @Router /api/connections/login [get]
func (c *ConnectionController) Login(ctx *gin.Context) {
	connectionID, _ := strconv.ParseInt(ctx.Query("connection_id"), 10, 64)
	label := ctx.Query("label")

	authURL, state, err := c.connectSvc.GenerateLoginURL(ctx.Request.Context(), connectionID, label)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.ConnectLoginResp{AuthURL: authURL, State: state})
}

// Callback 授权回调
// @Summary 授权回调
// @Description 平台授权完成后的回跳，code 换 token 并入库
// @Tags Connection (授权连接)
// @Produce json
// @Param code query string true "授权码"
// @Param state query string true "状态参数"
// @Success 200 {object} dto.ConnectionResp "已授权的连接"
// @Router /api/connections/callback [get]
func (c *ConnectionController) Callback(ctx *gin.Context) {
	var req dto.ConnectCallbackReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	conn, err := c.connectSvc.HandleCallback(ctx.Request.Context(), req.Code, req.State)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toConnectionResp(conn))
}
