package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// ChangeOutbox 变更事件表，与业务写入同事务落库，再由 relayer 投递到 kafka
type ChangeOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	Relation  string `gorm:"size:32;not null"`
	EventType string `gorm:"size:16;not null"` // INSERT / UPDATE / DELETE
	RecordID  string `gorm:"type:char(36);not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ChangeOutbox) TableName() string { return "change_outbox" }
