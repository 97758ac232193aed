package model

import (
	"time"
)

// Connection 状态常量
// 状态机：active -> needs_refresh -> active（重试成功）
//
//	active/needs_refresh -> expired（刷新被平台明确拒绝）
//	expired -> active（用户重新授权，或 refresh token 侥幸仍有效）
//
// 注意：expired 并非终态，下一轮同步仍会乐观重试，
// 因为 refresh token 的实际有效期可能比状态标记更长
const (
	ConnStatusActive       = "active"        // 正常
	ConnStatusNeedsRefresh = "needs_refresh" // 可恢复失败，下轮重试
	ConnStatusExpired      = "expired"       // 需重新授权
)

// Connection 一条外部广告平台的 OAuth 授权凭证
// 一个 Connection 可被多个 AdAccount 共享（MCC / 经理账户模式）
// 凭证与状态字段只允许 TokenService 写入，读路径不得修改
type Connection struct {
	BaseModel
	AuditMixin

	// 1. 核心身份
	Label             string `gorm:"size:100;comment:展示名称"`
	ProviderAccountID string `gorm:"size:64;index;comment:平台侧授权主体ID"`

	// 2. OAuth 凭证（AES-GCM 加密后 base64 存储）
	AccessToken    string    `gorm:"size:1024"`
	RefreshToken   string    `gorm:"size:1024"`
	TokenExpiresAt time.Time // Access Token 过期时间点

	// 3. 生命周期状态
	Status        string     `gorm:"index;size:20;default:'active'"`
	LastSyncAt    *time.Time `gorm:"comment:最后批量同步时间"`
	LastSyncError string     `gorm:"type:text;comment:最后同步错误"`

	// 4. 关联账户 (Has Many)
	Accounts []AdAccount `gorm:"foreignKey:ConnectionID"`
}

func (Connection) TableName() string {
	return "connections"
}
