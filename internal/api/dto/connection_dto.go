package dto

import "time"

// ================== Connection DTO ==================

// ConnectionListReq 授权连接列表请求
type ConnectionListReq struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Status   string `form:"status"`
	Label    string `form:"label"`
}

// ConnectionCreateReq 手工录入连接请求（用于迁移已有 refresh token）
type ConnectionCreateReq struct {
	Label             string `json:"label" binding:"required,max=100"`
	ProviderAccountID string `json:"provider_account_id" binding:"required,max=64"`
	AccessToken       string `json:"access_token" binding:"required"`
	RefreshToken      string `json:"refresh_token" binding:"required"`
	ExpiresIn         int    `json:"expires_in" binding:"gte=0"`
}

// ConnectionUpdateReq 连接更新请求（仅备注性字段）
type ConnectionUpdateReq struct {
	Label string `json:"label" binding:"max=100"`
}

// ConnectionResp 连接响应（不暴露令牌密文）
type ConnectionResp struct {
	ID                int64      `json:"id"`
	Label             string     `json:"label"`
	ProviderAccountID string     `json:"provider_account_id"`
	Status            string     `json:"status"`
	TokenExpiresAt    time.Time  `json:"token_expires_at"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSyncError     string     `json:"last_sync_error"`
	AccountCount      int        `json:"account_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ConnectionListResp 连接列表响应
type ConnectionListResp struct {
	Total int64            `json:"total"`
	List  []ConnectionResp `json:"list"`
}

// ConnectLoginResp 授权跳转响应
type ConnectLoginResp struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// ConnectCallbackReq 授权回调请求
type ConnectCallbackReq struct {
	Code  string `form:"code" binding:"required"`
	State string `form:"state" binding:"required"`
}
