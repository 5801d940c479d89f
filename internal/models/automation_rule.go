package models

import (
	"time"

	"gorm.io/datatypes"
)

// AutomationRule fires an action when a matching event crosses the bus.
// Match holds field/value equality conditions evaluated against the event
// payload; ActionParams parameterizes the action.
type AutomationRule struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Enabled bool   `gorm:"not null;default:true;index" json:"enabled"`

	Trigger      string         `gorm:"type:varchar(50);not null;index" json:"trigger"`
	Match        datatypes.JSON `gorm:"type:jsonb" json:"match,omitempty"`
	Action       string         `gorm:"type:varchar(50);not null" json:"action"`
	ActionParams datatypes.JSON `gorm:"type:jsonb" json:"action_params,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (AutomationRule) TableName() string {
	return "automation_rules"
}

const (
	TriggerLeadStatusChanged = "lead.status_changed"
	TriggerCallCompleted     = "call.completed"
	TriggerReminderDue       = "reminder.due"

	ActionCreateReminder = "create_reminder"
	ActionNotify         = "notify"
)
