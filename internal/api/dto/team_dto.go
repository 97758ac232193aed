package dto

import "time"

// ================== TeamMember DTO ==================

// TeamMemberCreateReq 成员创建请求
type TeamMemberCreateReq struct {
	Username    string `json:"username" binding:"required,max=50"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email"`
	Role        string `json:"role" binding:"required,oneof=admin operator viewer"`
	Note        string `json:"note"`
}

// TeamMemberUpdateReq 成员更新请求
type TeamMemberUpdateReq struct {
	DisplayName string `json:"display_name" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email"`
	Role        string `json:"role" binding:"omitempty,oneof=admin operator viewer"`
	IsActive    *bool  `json:"is_active"`
	Note        string `json:"note"`
}

// TeamMemberResp 成员响应
type TeamMemberResp struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMemberListResp 成员列表响应
type TeamMemberListResp struct {
	Total int64            `json:"total"`
	List  []TeamMemberResp `json:"list"`
}

// LoginReq 登录请求
type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResp 登录响应
type LoginResp struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Member       TeamMemberResp `json:"member"`
}
