package models

import "time"

type Reminder struct {
	ID      string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AgentID string  `gorm:"type:varchar(36);not null;index" json:"agent_id"`
	LeadID  *string `gorm:"type:varchar(36);index" json:"lead_id,omitempty"`

	Title string `gorm:"type:varchar(200);not null" json:"title"`
	Notes string `gorm:"type:text" json:"notes"`

	// DueAt is client data, not sync metadata; the reconciler passes it
	// through unchanged.
	DueAt       *time.Time `gorm:"type:timestamptz;index" json:"due_at,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CompletedAt *time.Time `gorm:"type:timestamptz" json:"completed_at,omitempty"`
	NotifiedAt  *time.Time `gorm:"type:timestamptz" json:"notified_at,omitempty"`

	SyncStatus string `gorm:"type:varchar(10);not null;default:'synced'" json:"sync_status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime;index" json:"updated_at"`
}

func (Reminder) TableName() string {
	return "reminders"
}

func (r Reminder) GetID() string           { return r.ID }
func (r Reminder) GetUpdatedAt() time.Time { return r.UpdatedAt }

const (
	ReminderStatusPending   = "pending"
	ReminderStatusCompleted = "completed"
)
