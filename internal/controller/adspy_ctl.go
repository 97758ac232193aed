package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"magiops_v1_202608/internal/api/dto"
	"magiops_v1_202608/internal/service"
)

type AdSpyController struct {
	adspySvc *service.AdSpyService
}

func NewAdSpyController(adspySvc *service.AdSpyService) *AdSpyController {
	return &AdSpyController{adspySvc: adspySvc}
}

// Search 竞品广告检索
// @Summary 按关键词检索投放中的竞品广告
// @Tags AdSpy (竞品调研)
// @Produce json
// @Param keyword query string true "检索关键词"
// @Param location query string false "投放地区" default(us)
// @Param num_results query int false "返回数量 (1-50)" default(20)
// @Success 200 {object} dto.AdSpySearchResp "检索结果"
// @Router /api/adspy/search [get]
func (c *AdSpyController) Search(ctx *gin.Context) {
	var req dto.AdSpySearchReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.adspySvc.Search(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "检索服务异常: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Health 检索服务健康检查
// @Summary 竞品检索服务健康检查
// @Tags AdSpy (竞品调研)
// @Produce json
// @Success 200 {object} map[string]string "服务状态"
// @Router /api/adspy/health [get]
func (c *AdSpyController) Health(ctx *gin.Context) {
	if err := c.adspySvc.Health(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
