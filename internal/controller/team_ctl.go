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

type TeamController struct {
	teamSvc *service.TeamService
}

func NewTeamController(teamSvc *service.TeamService) *TeamController {
	return &TeamController{teamSvc: teamSvc}
}

// Login 成员登录
// @Summary 成员登录，签发访问令牌
// @Tags Team (团队成员)
// @Accept json
// @Produce json
// @Param request body dto.LoginReq true "登录参数"
// @Success 200 {object} dto.LoginResp "令牌与成员信息"
// @Router /api/team/login [post]
func (c *TeamController) Login(ctx *gin.Context) {
	var req dto.LoginReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	member, err := c.teamSvc.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredential) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(member.ID, member.Username, member.Role)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "令牌签发失败: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.LoginResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Member:       toMemberResp(member),
	})
}

// ListMembers 获取团队成员列表
// @Summary 获取团队成员列表
// @Tags Team (团队成员)
// @Produce json
// @Param role query string false "角色 admin/operator/viewer"
// @Success 200 {object} dto.TeamMemberListResp "成员列表"
// @Router /api/team [get]
func (c *TeamController) ListMembers(ctx *gin.Context) {
	members, err := c.teamSvc.ListMembers(ctx.Request.Context(), ctx.Query("role"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]dto.TeamMemberResp, 0, len(members))
	for i := range members {
		list = append(list, toMemberResp(&members[i]))
	}
	ctx.JSON(http.StatusOK, dto.TeamMemberListResp{Total: int64(len(list)), List: list})
}

// GetMember 获取成员详情
// @Summary 获取成员详情
// @Tags Team (团队成员)
// @Produce json
// @Param id path int true "成员ID"
// @Success 200 {object} dto.TeamMemberResp "成员详情"
// @Router /api/team/{id} [get]
func (c *TeamController) GetMember(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的成员ID"})
		return
	}

	member, err := c.teamSvc.GetMember(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "成员不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toMemberResp(member))
}

// CreateMember 添加团队成员
// @Summary 添加团队成员
// @Tags Team (团队成员)
// @Accept json
// @Produce json
// @Param request body dto.TeamMemberCreateReq true "成员参数"
// @Success 200 {object} dto.TeamMemberResp "新建的成员"
// @Router /api/team [post]
func (c *TeamController) CreateMember(ctx *gin.Context) {
	var req dto.TeamMemberCreateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	member, err := c.teamSvc.CreateMember(ctx.Request.Context(), req, middleware.GetUsername(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toMemberResp(member))
}

// UpdateMember 更新成员信息
// @Summary 更新成员信息（角色、状态、备注）
// @Tags Team (团队成员)
// @Accept json
// @Produce json
// @Param id path int true "成员ID"
// @Param request body dto.TeamMemberUpdateReq true "更新参数"
// @Success 200 {object} dto.TeamMemberResp "更新后的成员"
// @Router /api/team/{id} [put]
func (c *TeamController) UpdateMember(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的成员ID"})
		return
	}

	var req dto.TeamMemberUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	member, err := c.teamSvc.UpdateMember(ctx.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "成员不存在"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, toMemberResp(member))
}
