package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID string `gorm:"type:varchar(36);not null;index" json:"agent_id"`

	Event   string         `gorm:"type:varchar(50);not null" json:"event"`
	Title   string         `gorm:"type:varchar(200);not null" json:"title"`
	Body    string         `gorm:"type:text" json:"body"`
	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`

	Read bool `gorm:"not null;default:false;index" json:"read"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
