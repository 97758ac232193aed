package model

import (
	"time"
)

// Domain 验证状态常量
const (
	DomainStatusPending  = "pending"  // 解析记录已提交，等待生效
	DomainStatusVerified = "verified" // 解析已验证
	DomainStatusFailed   = "failed"   // 验证失败
)

// Domain 落地页域名（托管在 DNS 服务商）
type Domain struct {
	BaseModel
	AuditMixin

	Hostname string `gorm:"size:255;uniqueIndex;not null"`
	ZoneID   string `gorm:"size:64;comment:DNS 服务商侧 zone 标识"`
	RecordID string `gorm:"size:64;comment:DNS 服务商侧记录标识"`
	Target   string `gorm:"size:255;comment:解析目标"`

	Status     string     `gorm:"size:20;index;default:'pending'"`
	VerifiedAt *time.Time

	// 可选绑定到某个广告账户的投放
	AccountID *int64     `gorm:"index"`
	Account   *AdAccount `gorm:"foreignKey:AccountID"`
}

func (Domain) TableName() string {
	return "domains"
}
