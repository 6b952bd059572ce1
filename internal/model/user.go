package model

import "time"

// User 认证子系统持有的账号凭据
type User struct {
	ID        string `gorm:"primaryKey;type:char(36)"`
	Email     string `gorm:"uniqueIndex;size:128;not null"`
	Password  string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// Profile 与账号同 id 的公开资料，nil 表示未设置
type Profile struct {
	ID        string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	FullName  *string   `gorm:"size:128" json:"full_name"`
	AvatarURL *string   `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (Profile) TableName() string { return "profiles" }

// DisplayName falls back to the email when no name is set.
func (p Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}
