package model

import "time"

// 用户状态
const (
	UserStatusActive   = 1
	UserStatusDisabled = 0
)

// SysUser 系统用户
type SysUser struct {
	BaseModel
	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // 哈希密码
	FullName string `gorm:"size:100" json:"full_name"`

	// 系统级角色: admin (管理员), user (普通用户)
	Role   string `gorm:"size:20;default:'user'" json:"role"`
	Status int    `gorm:"default:1" json:"status"`

	LastLoginAt *time.Time `json:"last_login_at"`

	// 关联关系
	Projects  []Project  `gorm:"foreignKey:OwnerID" json:"-"`
	Documents []Document `gorm:"foreignKey:OwnerID" json:"-"`
}

func (SysUser) TableName() string {
	return "sys_users"
}
