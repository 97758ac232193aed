package dto

import "time"

// ================== Identity DTO ==================

// IdentityListReq 身份列表请求
type IdentityListReq struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Keyword  string `form:"keyword"`
	Status   int    `form:"status"`
	Country  string `form:"country"`
}

// IdentityCreateReq 身份创建请求
type IdentityCreateReq struct {
	Name      string   `json:"name" binding:"required,max=100"`
	FullName  string   `json:"full_name" binding:"max=100"`
	Email     string   `json:"email" binding:"omitempty,email"`
	Country   string   `json:"country" binding:"max=20"`
	ProfileID string   `json:"profile_id" binding:"max=64"`
	UserAgent string   `json:"user_agent"`
	Cookies   string   `json:"cookies"`
	ProxyURL  string   `json:"proxy_url" binding:"max=255"`
	Tags      []string `json:"tags"`
	Note      string   `json:"note"`
}

// IdentityUpdateReq 身份更新请求
type IdentityUpdateReq struct {
	Name      string   `json:"name" binding:"max=100"`
	FullName  string   `json:"full_name" binding:"max=100"`
	Email     string   `json:"email" binding:"omitempty,email"`
	Country   string   `json:"country" binding:"max=20"`
	ProfileID string   `json:"profile_id" binding:"max=64"`
	UserAgent string   `json:"user_agent"`
	Cookies   string   `json:"cookies"`
	ProxyURL  string   `json:"proxy_url" binding:"max=255"`
	Tags      []string `json:"tags"`
	Status    int      `json:"status" binding:"omitempty,oneof=1 2 3"`
	Note      string   `json:"note"`
}

// IdentityResp 身份响应（不回显 cookies 密文）
type IdentityResp struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Country      string    `json:"country"`
	ProfileID    string    `json:"profile_id"`
	UserAgent    string    `json:"user_agent"`
	ProxyURL     string    `json:"proxy_url"`
	Tags         []string  `json:"tags"`
	Status       int       `json:"status"`
	StatusText   string    `json:"status_text"`
	Note         string    `json:"note"`
	HasCookies   bool      `json:"has_cookies"`
	AccountCount int       `json:"account_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IdentityListResp 身份列表响应
type IdentityListResp struct {
	Total int64          `json:"total"`
	List  []IdentityResp `json:"list"`
}
