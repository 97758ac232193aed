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

type DomainController struct {
	domainSvc *service.DomainService
}

func NewDomainController(domainSvc *service.DomainService) *DomainController {
	return &DomainController{domainSvc: domainSvc}
}

// ListDomains 获取域名列表
// @Summary 获取落地页域名列表
// @Tags Domain (落地页域名)
// @Produce json
// @Param status query string false "状态 pending/verified/failed"
// @Param account_id query int false "关联广告账户ID"
// @Param keyword query string false "域名关键词"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.DomainListResp "域名列表"
// @Router /api/domains [get]
func (c *DomainController) ListDomains(ctx *gin.Context) {
	var req dto.DomainListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	domains, total, err := c.domainSvc.ListDomains(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]dto.DomainResp, 0, len(domains))
	for i := range domains {
		list = append(list, toDomainResp(&domains[i]))
	}
	ctx.JSON(http.StatusOK, dto.DomainListResp{Total: total, List: list})
}

// GetDomain 获取域名详情
// @Summary 获取域名详情
// @Tags Domain (落地页域名)
// @Produce json
// @Param id path int true "域名ID"
// @Success 200 {object} dto.DomainResp "域名详情"
// @Router /api/domains/{id} [get]
func (c *DomainController) GetDomain(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的域名ID"})
		return
	}

	domain, err := c.domainSvc.GetDomain(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "域名不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toDomainResp(domain))
}

// CreateDomain 登记域名
// @Summary 登记落地页域名并创建 DNS 记录
// @Tags Domain (落地页域名)
// @Accept json
// @Produce json
// @Param request body dto.DomainCreateReq true "域名参数"
// @Success 200 {object} dto.DomainResp "新建的域名（pending 状态）"
// @Router /api/domains [post]
func (c *DomainController) CreateDomain(ctx *gin.Context) {
	var req dto.DomainCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	domain, err := c.domainSvc.CreateDomain(ctx.Request.Context(), req, middleware.GetUsername(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toDomainResp(domain))
}

// VerifyDomain 验证域名解析
// @Summary 立即验证域名 DNS 解析
// @Tags Domain (落地页域名)
// @Produce json
// @Param id path int true "域名ID"
// @Success 200 {object} dto.DomainResp "验证后的域名"
// @Router /api/domains/{id}/verify [post]
func (c *DomainController) VerifyDomain(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的域名ID"})
		return
	}

	domain, err := c.domainSvc.VerifyDomain(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "域名不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toDomainResp(domain))
}

// DeleteDomain 删除域名
// @Summary 删除域名并清理 DNS 记录
// @Tags Domain (落地页域名)
// @Produce json
// @Param id path int true "域名ID"
// @Success 200 {object} map[string]string "删除结果"
// @Router /api/domains/{id} [delete]
func (c *DomainController) DeleteDomain(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的域名ID"})
		return
	}

	if err := c.domainSvc.DeleteDomain(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "域名不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}
