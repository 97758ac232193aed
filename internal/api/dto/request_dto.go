package dto

import "time"

// ================== OpsRequest DTO ==================

// RequestListReq 工单列表请求
type RequestListReq struct {
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=20"`
	Type       string `form:"type"`
	Status     string `form:"status"`
	AssigneeID int64  `form:"assignee_id"`
	AccountID  int64  `form:"account_id"`
	Keyword    string `form:"keyword"`
}

// RequestCreateReq 工单创建请求
type RequestCreateReq struct {
	Type      string `json:"type" binding:"required,oneof=new_account top_up domain other"`
	Title     string `json:"title" binding:"required,max=200"`
	Detail    string `json:"detail"`
	AccountID *int64 `json:"account_id"`
}

// RequestUpdateReq 工单更新请求
type RequestUpdateReq struct {
	Title      string `json:"title" binding:"max=200"`
	Detail     string `json:"detail"`
	AssigneeID *int64 `json:"assignee_id"`
}

// RequestResolveReq 工单处理请求（审批/驳回/完结）
type RequestResolveReq struct {
	Status     string `json:"status" binding:"required,oneof=approved rejected done"`
	Resolution string `json:"resolution" binding:"max=2000"`
}

// RequestResp 工单响应
type RequestResp struct {
	ID           int64     `json:"id"`
	TraceID      string    `json:"trace_id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Detail       string    `json:"detail"`
	Status       string    `json:"status"`
	Resolution   string    `json:"resolution"`
	AssigneeID   *int64    `json:"assignee_id"`
	AssigneeName string    `json:"assignee_name"`
	AccountID    *int64    `json:"account_id"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RequestListResp 工单列表响应
type RequestListResp struct {
	Total int64         `json:"total"`
	List  []RequestResp `json:"list"`
}

// RequestStatsResp 工单状态统计响应
type RequestStatsResp struct {
	Open     int64 `json:"open"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Done     int64 `json:"done"`
}
