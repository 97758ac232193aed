package model

import (
	"github.com/lib/pq"
)

// Identity 状态常量
const (
	IdentityStatusActive   = 1 // 可用
	IdentityStatusInactive = 2 // 已停用
	IdentityStatusBurned   = 3 // 已废弃（风控命中）
)

// Identity 浏览器自动化身份（操作广告账户用的人设环境）
// Cookies 为加密存储的敏感字段
type Identity struct {
	BaseModel
	AuditMixin

	Name     string `gorm:"size:100;not null"`
	FullName string `gorm:"size:100;comment:人设姓名"`
	Email    string `gorm:"size:100"`
	Country  string `gorm:"size:20"`

	// --- 指纹环境 ---
	ProfileID string `gorm:"size:64;index;comment:浏览器 profile 唯一标识"`
	UserAgent string `gorm:"type:text"`
	Cookies   string `gorm:"type:text"` // 加密
	ProxyURL  string `gorm:"size:255"`

	Tags   pq.StringArray `gorm:"type:text[]" json:"tags"`
	Status int            `gorm:"default:1;comment:状态 1-可用 2-停用 3-废弃"`
	Note   string         `gorm:"type:text"`

	// 关联账户 (Has Many)
	Accounts []AdAccount `gorm:"foreignKey:IdentityID"`
}

func (Identity) TableName() string {
	return "identities"
}
