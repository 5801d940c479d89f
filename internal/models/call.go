package models

import "time"

type Call struct {
	ID      string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AgentID string  `gorm:"type:varchar(36);not null;index" json:"agent_id"`
	LeadID  *string `gorm:"type:varchar(36);index" json:"lead_id,omitempty"`

	PhoneNumber string `gorm:"type:varchar(30);not null" json:"phone_number"`
	Direction   string `gorm:"type:varchar(10);not null;default:'outbound'" json:"direction"`
	Status      string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Outcome     string `gorm:"type:varchar(50)" json:"outcome"`
	Notes       string `gorm:"type:text" json:"notes"`

	StartedAt       *time.Time `gorm:"type:timestamptz" json:"started_at,omitempty"`
	EndedAt         *time.Time `gorm:"type:timestamptz" json:"ended_at,omitempty"`
	DurationSeconds int        `gorm:"not null;default:0" json:"duration_seconds"`

	SyncStatus string `gorm:"type:varchar(10);not null;default:'synced'" json:"sync_status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime;index" json:"updated_at"`
}

func (Call) TableName() string {
	return "calls"
}

func (c Call) GetID() string           { return c.ID }
func (c Call) GetUpdatedAt() time.Time { return c.UpdatedAt }

const (
	CallStatusPending    = "pending"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusMissed     = "missed"
)
