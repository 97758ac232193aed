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

type IdentityController struct {
	identitySvc *service.IdentityService
}

func NewIdentityController(identitySvc *service.IdentityService) *IdentityController {
	return &IdentityController{identitySvc: identitySvc}
}

// ListIdentities 获取身份列表
// @Summary 获取浏览器身份列表
// @Tags Identity (浏览器身份)
// @Produce json
// @Param keyword query string false "名称/邮箱关键词"
// @Param status query int false "状态 1-可用 2-停用 3-废弃"
// @Param country query string false "国家"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.IdentityListResp "身份列表"
// @Router /api/identities [get]
func (c *IdentityController) ListIdentities(ctx *gin.Context) {
	var req dto.IdentityListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	identities, total, err := c.identitySvc.ListIdentities(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]dto.IdentityResp, 0, len(identities))
	for i := range identities {
		list = append(list, toIdentityResp(&identities[i]))
	}
	ctx.JSON(http.StatusOK, dto.IdentityListResp{Total: total, List: list})
}

// GetIdentity 获取身份详情
// @Summary 获取身份详情
// @Tags Identity (浏览器身份)
// @Produce json
// @Param id path int true "身份ID"
// @Success 200 {object} dto.IdentityResp "身份详情"
// @Router /api/identities/{id} [get]
func (c *IdentityController) GetIdentity(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的身份ID"})
		return
	}

	identity, err := c.identitySvc.GetIdentity(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "身份不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toIdentityResp(identity))
}

// CreateIdentity 新建身份
// @Summary 新建浏览器身份
// @Description cookies 为敏感字段，加密入库且查询接口不回显
// @Tags Identity (浏览器身份)
// @Accept json
// @Produce json
// @Param request body dto.IdentityCreateReq true "身份参数"
// @Success 200 {object} dto.IdentityResp "新建的身份"
// @Router /api/identities [post]
func (c *IdentityController) CreateIdentity(ctx *gin.Context) {
	var req dto.IdentityCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	identity, err := c.identitySvc.CreateIdentity(ctx.Request.Context(), req, middleware.GetUsername(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toIdentityResp(identity))
}

// UpdateIdentity 更新身份
// @Summary 更新浏览器身份
// @Tags Identity (浏览器身份)
// @Accept json
// @Produce json
// @Param id path int true "身份ID"
// @Param request body dto.IdentityUpdateReq true "更新参数"
// @Success 200 {object} dto.IdentityResp "更新后的身份"
// @Router /api/identities/{id} [put]
func (c *IdentityController) UpdateIdentity(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的身份ID"})
		return
	}

	var req dto.IdentityUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	identity, err := c.identitySvc.UpdateIdentity(ctx.Request.Context(), id, req, middleware.GetUsername(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "身份不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toIdentityResp(identity))
}

// DeleteIdentity 删除身份
// @Summary 删除浏览器身份
// @Tags Identity (浏览器身份)
// @Produce json
// @Param id path int true "身份ID"
// @Success 200 {object} map[string]string "{"message": "身份已删除"}"
// @Router /api/identities/{id} [delete]
func (c *IdentityController) DeleteIdentity(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的身份ID"})
		return
	}

	if err := c.identitySvc.DeleteIdentity(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "身份不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "身份已删除"})
}
