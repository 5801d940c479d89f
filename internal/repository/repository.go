package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"crm/internal/models"
)

// SyncRepository is the narrow store surface the reconciliation engine and
// both sync transports depend on. The store assigns ids and updated_at; a
// sanitized field map is the unit of exchange because push payloads are
// partial, client-originated JSON objects.
type SyncRepository interface {
	CreateSyncable(ctx context.Context, entity models.EntityType, fields map[string]any) (models.Syncable, error)
	UpdateSyncable(ctx context.Context, entity models.EntityType, id string, fields map[string]any) error
	ListSyncableSince(ctx context.Context, entity models.EntityType, since time.Time, agentID string) ([]models.Syncable, error)

	InsertSyncLog(ctx context.Context, item *models.SyncLog) error
	GetLastSyncLog(ctx context.Context, agentID string, dataType string) (*models.SyncLog, error)
}

// Repository is the full store surface. It embeds SyncRepository so sync
// components can keep depending on the subset.
type Repository interface {
	SyncRepository

	// Agents
	CreateAgent(ctx context.Context, item *models.Agent) error
	GetAgentByID(ctx context.Context, id string) (*models.Agent, error)
	GetAgentByEmail(ctx context.Context, email string) (*models.Agent, error)
	UpdateAgent(ctx context.Context, id string, updates map[string]any) error
	ListAgents(ctx context.Context) ([]models.Agent, error)

	// Calls
	CreateCall(ctx context.Context, item *models.Call) error
	GetCallByID(ctx context.Context, id string) (*models.Call, error)
	UpdateCall(ctx context.Context, id string, updates map[string]any) error
	ListCalls(ctx context.Context, params ListCallsParams) ([]models.Call, error)
	CountCalls(ctx context.Context, params ListCallsParams) (int64, error)

	// Leads
	CreateLead(ctx context.Context, item *models.Lead) error
	GetLeadByID(ctx context.Context, id string) (*models.Lead, error)
	UpdateLead(ctx context.Context, id string, updates map[string]any) error
	ClaimLead(ctx context.Context, id string, agentID string) (bool, error)
	ListLeads(ctx context.Context, params ListLeadsParams) ([]models.Lead, error)
	CountLeads(ctx context.Context, params ListLeadsParams) (int64, error)

	// Reminders
	CreateReminder(ctx context.Context, item *models.Reminder) error
	GetReminderByID(ctx context.Context, id string) (*models.Reminder, error)
	UpdateReminder(ctx context.Context, id string, updates map[string]any) error
	ListReminders(ctx context.Context, params ListRemindersParams) ([]models.Reminder, error)
	CountReminders(ctx context.Context, params ListRemindersParams) (int64, error)
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	MarkReminderNotified(ctx context.Context, id string, at time.Time) error

	// Sync logs
	ListSyncLogs(ctx context.Context, params ListSyncLogsParams) ([]models.SyncLog, error)
	DeleteSyncLogsBefore(ctx context.Context, before time.Time) (int64, error)

	// Notifications
	InsertNotification(ctx context.Context, item *models.Notification) error
	ListNotifications(ctx context.Context, params ListNotificationsParams) ([]models.Notification, error)
	CountNotifications(ctx context.Context, params ListNotificationsParams) (int64, error)
	MarkNotificationRead(ctx context.Context, agentID string, id uint64) error
	MarkAllNotificationsRead(ctx context.Context, agentID string) (int64, error)

	// Automation rules
	CreateAutomationRule(ctx context.Context, item *models.AutomationRule) error
	GetAutomationRuleByID(ctx context.Context, id uint64) (*models.AutomationRule, error)
	UpdateAutomationRule(ctx context.Context, id uint64, updates map[string]any) error
	DeleteAutomationRule(ctx context.Context, id uint64) error
	ListAutomationRules(ctx context.Context, enabledOnly bool) ([]models.AutomationRule, error)

	// Analytics
	AnalyticsSummary(ctx context.Context, agentID string) (AnalyticsSummary, error)
	CallsPerDay(ctx context.Context, agentID string, days int) ([]DayCount, error)
	LeadsByStatus(ctx context.Context, agentID string) ([]StatusCount, error)
}

type ListCallsParams struct {
	AgentID *string
	LeadID  *string
	Status  *string
	Since   *time.Time
	Until   *time.Time
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}

type ListLeadsParams struct {
	// AssignedTo scopes to "assigned to this agent or unassigned" when
	// IncludeUnassigned is set, mirroring pull-cursor visibility.
	AssignedTo        *string
	IncludeUnassigned bool
	Status            *string
	Source            *string
	Limit             int
	Offset            int
	OrderBy           string
	Asc               *bool
}

type ListRemindersParams struct {
	AgentID *string
	LeadID  *string
	Status  *string
	DueBy   *time.Time
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}

type ListSyncLogsParams struct {
	AgentID  *string
	DataType *string
	Status   *string
	Limit    int
	Offset   int
}

type ListNotificationsParams struct {
	AgentID    string
	UnreadOnly bool
	Limit      int
	Offset     int
}

type AnalyticsSummary struct {
	TotalCalls        int64           `json:"total_calls"`
	CompletedCalls    int64           `json:"completed_calls"`
	TotalLeads        int64           `json:"total_leads"`
	ConvertedLeads    int64           `json:"converted_leads"`
	PendingReminders  int64           `json:"pending_reminders"`
	PipelineDealValue decimal.Decimal `json:"pipeline_deal_value"`
}

type DayCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
