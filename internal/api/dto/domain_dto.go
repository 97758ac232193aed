package dto

import "time"

// ================== Domain DTO ==================

// DomainListReq 域名列表请求
type DomainListReq struct {
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
	Status    string `form:"status"`
	AccountID int64  `form:"account_id"`
	Keyword   string `form:"keyword"`
}

// DomainCreateReq 域名接入请求（在 DNS 服务商创建解析记录）
type DomainCreateReq struct {
	Hostname  string `json:"hostname" binding:"required,hostname,max=255"`
	ZoneID    string `json:"zone_id" binding:"required,max=64"`
	Target    string `json:"target" binding:"required,max=255"`
	Proxied   bool   `json:"proxied"`
	AccountID *int64 `json:"account_id"`
}

// DomainResp 域名响应
type DomainResp struct {
	ID          int64      `json:"id"`
	Hostname    string     `json:"hostname"`
	ZoneID      string     `json:"zone_id"`
	RecordID    string     `json:"record_id"`
	Target      string     `json:"target"`
	Status      string     `json:"status"`
	VerifiedAt  *time.Time `json:"verified_at"`
	AccountID   *int64     `json:"account_id"`
	AccountName string     `json:"account_name"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DomainListResp 域名列表响应
type DomainListResp struct {
	Total int64        `json:"total"`
	List  []DomainResp `json:"list"`
}
