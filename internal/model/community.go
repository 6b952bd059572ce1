package model

import "time"

type Community struct {
	ID          string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	CreatedBy   string    `gorm:"type:char(36);not null;index" json:"created_by"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (Community) TableName() string { return "communities" }

// CommunityRow 带读时计算成员数的社区行，member_count 不落库
type CommunityRow struct {
	Community
	MemberCount int64 `gorm:"column:member_count;->" json:"member_count"`
}

type CommunityMember struct {
	ID          string    `gorm:"primaryKey;type:char(36)" json:"id"`
	CommunityID string    `gorm:"type:char(36);not null;uniqueIndex:uk_community_user" json:"community_id"`
	UserID      string    `gorm:"type:char(36);not null;index;uniqueIndex:uk_community_user" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	User        Profile   `gorm:"foreignKey:UserID;references:ID" json:"user"`
}

func (CommunityMember) TableName() string { return "community_members" }
