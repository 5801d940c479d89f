package models

import "time"

// EntityType names a syncable table. It is the dispatch key for the
// reconciliation engine and the pull cursor.
type EntityType string

const (
	EntityCalls     EntityType = "calls"
	EntityLeads     EntityType = "leads"
	EntityReminders EntityType = "reminders"

	// EntityAll is accepted by pull/status endpoints, never by push.
	EntityAll EntityType = "all"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityCalls, EntityLeads, EntityReminders:
		return true
	}
	return false
}

func SyncableEntities() []EntityType {
	return []EntityType{EntityCalls, EntityLeads, EntityReminders}
}

// Syncable is the shape shared by Call, Lead and Reminder. The store assigns
// ID on first creation and refreshes UpdatedAt on every write; UpdatedAt is
// the sole change-detection cursor.
type Syncable interface {
	GetID() string
	GetUpdatedAt() time.Time
}

const (
	SyncStatusSynced  = "synced"
	SyncStatusPending = "pending"
)

const StatusDeleted = "deleted"
