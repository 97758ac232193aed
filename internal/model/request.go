package model

// OpsRequest 状态常量
const (
	RequestStatusOpen     = "open"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
	RequestStatusDone     = "done"
)

// OpsRequest 类型常量
const (
	RequestTypeNewAccount = "new_account" // 申请新广告账户
	RequestTypeTopUp      = "top_up"      // 充值
	RequestTypeDomain     = "domain"      // 域名/落地页
	RequestTypeOther      = "other"
)

// OpsRequest 内部运营工单（申请账户、充值、换域名等）
type OpsRequest struct {
	BaseModel
	AuditMixin

	TraceID string `gorm:"size:36;uniqueIndex;comment:外部可引用的追踪ID"`
	Type    string `gorm:"size:30;index;not null"`
	Title   string `gorm:"size:200;not null"`
	Detail  string `gorm:"type:text"`

	Status     string `gorm:"size:20;index;default:'open'"`
	AssigneeID *int64 `gorm:"index"`
	Assignee   *TeamMember
	Resolution string `gorm:"type:text;comment:处理结论"`

	// 可选关联
	AccountID *int64 `gorm:"index"`
}

func (OpsRequest) TableName() string {
	return "ops_requests"
}
