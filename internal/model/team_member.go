package model

// TeamMember 角色常量
// 角色: admin, operator, viewer
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// TeamMember 团队成员档案
type TeamMember struct {
	BaseModel

	Username     string `gorm:"size:50;uniqueIndex;not null"`
	DisplayName  string `gorm:"size:100"`
	Email        string `gorm:"size:100;index"`
	PasswordHash string `gorm:"size:255" json:"-"` // bcrypt

	Role     string `gorm:"size:20;default:'viewer'"`
	IsActive bool   `gorm:"default:true"`
	Note     string `gorm:"type:text"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
