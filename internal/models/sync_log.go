package models

import "time"

// SyncLog is a write-once record of a sync attempt. It is observability
// only and is never read back for reconciliation decisions.
type SyncLog struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID string `gorm:"type:varchar(36);not null;index:idx_sync_logs_agent_type" json:"agent_id"`

	SyncType string `gorm:"type:varchar(20);not null" json:"sync_type"`
	DataType string `gorm:"type:varchar(20);not null;index:idx_sync_logs_agent_type" json:"data_type"`

	RecordCount  int    `gorm:"not null;default:0" json:"record_count"`
	Status       string `gorm:"type:varchar(10);not null" json:"status"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}

const (
	SyncTypeOnline  = "online_sync"
	SyncTypeOffline = "offline_sync"
	SyncTypeFull    = "full"

	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)
