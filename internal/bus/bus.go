package bus

import "context"

// Event is a typed broadcast across the push channel. AgentID scopes
// delivery to one agent; empty means visible to every subscriber.
type Event struct {
	Name    string         `json:"name"`
	AgentID string         `json:"agent_id,omitempty"`
	Origin  string         `json:"origin,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Bus is fire-and-forget: at-most-once, best-effort, no ordering guarantee
// across subscribers. Publishers never learn about delivery.
type Bus interface {
	Publish(ctx context.Context, evt Event)
}

const (
	EventSyncPushed        = "sync:pushed"
	EventLeadChanged       = "lead:changed"
	EventLeadStatusChanged = "lead.status_changed"
	EventCallChanged       = "call:changed"
	EventCallCompleted     = "call.completed"
	EventReminderChanged   = "reminder:changed"
	EventReminderDue       = "reminder.due"
	EventNotification      = "notification"
)
