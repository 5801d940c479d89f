package service

import (
	"context"
	"time"

	"crm/internal/models"
	"crm/internal/repository"
)

// stubRepo implements the full store surface with overridable hooks so each
// test only wires what it exercises.
type stubRepo struct {
	createSyncableFn func(ctx context.Context, entity models.EntityType, fields map[string]any) (models.Syncable, error)
	updateSyncableFn func(ctx context.Context, entity models.EntityType, id string, fields map[string]any) error
	listSinceFn      func(ctx context.Context, entity models.EntityType, since time.Time, agentID string) ([]models.Syncable, error)
	insertLogFn      func(ctx context.Context, item *models.SyncLog) error
	lastLogFn        func(ctx context.Context, agentID string, dataType string) (*models.SyncLog, error)

	listDueFn            func(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	markNotifiedFn       func(ctx context.Context, id string, at time.Time) error
	insertNotificationFn func(ctx context.Context, item *models.Notification) error
	createReminderFn     func(ctx context.Context, item *models.Reminder) error
	listRulesFn          func(ctx context.Context, enabledOnly bool) ([]models.AutomationRule, error)
}

var _ repository.Repository = (*stubRepo)(nil)

func (s *stubRepo) CreateSyncable(ctx context.Context, entity models.EntityType, fields map[string]any) (models.Syncable, error) {
	if s.createSyncableFn != nil {
		return s.createSyncableFn(ctx, entity, fields)
	}
	return models.Call{ID: "stub"}, nil
}

func (s *stubRepo) UpdateSyncable(ctx context.Context, entity models.EntityType, id string, fields map[string]any) error {
	if s.updateSyncableFn != nil {
		return s.updateSyncableFn(ctx, entity, id, fields)
	}
	return nil
}

func (s *stubRepo) ListSyncableSince(ctx context.Context, entity models.EntityType, since time.Time, agentID string) ([]models.Syncable, error) {
	if s.listSinceFn != nil {
		return s.listSinceFn(ctx, entity, since, agentID)
	}
	return nil, nil
}

func (s *stubRepo) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s.insertLogFn != nil {
		return s.insertLogFn(ctx, item)
	}
	return nil
}

func (s *stubRepo) GetLastSyncLog(ctx context.Context, agentID string, dataType string) (*models.SyncLog, error) {
	if s.lastLogFn != nil {
		return s.lastLogFn(ctx, agentID, dataType)
	}
	return nil, nil
}

func (s *stubRepo) CreateAgent(context.Context, *models.Agent) error            { return nil }
func (s *stubRepo) GetAgentByID(context.Context, string) (*models.Agent, error) { return nil, nil }
func (s *stubRepo) GetAgentByEmail(context.Context, string) (*models.Agent, error) {
	return nil, nil
}
func (s *stubRepo) UpdateAgent(context.Context, string, map[string]any) error { return nil }
func (s *stubRepo) ListAgents(context.Context) ([]models.Agent, error)        { return nil, nil }

func (s *stubRepo) CreateCall(context.Context, *models.Call) error            { return nil }
func (s *stubRepo) GetCallByID(context.Context, string) (*models.Call, error) { return nil, nil }
func (s *stubRepo) UpdateCall(context.Context, string, map[string]any) error  { return nil }
func (s *stubRepo) ListCalls(context.Context, repository.ListCallsParams) ([]models.Call, error) {
	return nil, nil
}
func (s *stubRepo) CountCalls(context.Context, repository.ListCallsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) CreateLead(context.Context, *models.Lead) error            { return nil }
func (s *stubRepo) GetLeadByID(context.Context, string) (*models.Lead, error) { return nil, nil }
func (s *stubRepo) UpdateLead(context.Context, string, map[string]any) error  { return nil }
func (s *stubRepo) ClaimLead(context.Context, string, string) (bool, error)   { return true, nil }
func (s *stubRepo) ListLeads(context.Context, repository.ListLeadsParams) ([]models.Lead, error) {
	return nil, nil
}
func (s *stubRepo) CountLeads(context.Context, repository.ListLeadsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) CreateReminder(ctx context.Context, item *models.Reminder) error {
	if s.createReminderFn != nil {
		return s.createReminderFn(ctx, item)
	}
	return nil
}
func (s *stubRepo) GetReminderByID(context.Context, string) (*models.Reminder, error) {
	return nil, nil
}
func (s *stubRepo) UpdateReminder(context.Context, string, map[string]any) error { return nil }
func (s *stubRepo) ListReminders(context.Context, repository.ListRemindersParams) ([]models.Reminder, error) {
	return nil, nil
}
func (s *stubRepo) CountReminders(context.Context, repository.ListRemindersParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	if s.listDueFn != nil {
		return s.listDueFn(ctx, now, limit)
	}
	return nil, nil
}
func (s *stubRepo) MarkReminderNotified(ctx context.Context, id string, at time.Time) error {
	if s.markNotifiedFn != nil {
		return s.markNotifiedFn(ctx, id, at)
	}
	return nil
}

func (s *stubRepo) ListSyncLogs(context.Context, repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	return nil, nil
}
func (s *stubRepo) DeleteSyncLogsBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func (s *stubRepo) InsertNotification(ctx context.Context, item *models.Notification) error {
	if s.insertNotificationFn != nil {
		return s.insertNotificationFn(ctx, item)
	}
	return nil
}
func (s *stubRepo) ListNotifications(context.Context, repository.ListNotificationsParams) ([]models.Notification, error) {
	return nil, nil
}
func (s *stubRepo) CountNotifications(context.Context, repository.ListNotificationsParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) MarkNotificationRead(context.Context, string, uint64) error { return nil }
func (s *stubRepo) MarkAllNotificationsRead(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *stubRepo) CreateAutomationRule(context.Context, *models.AutomationRule) error { return nil }
func (s *stubRepo) GetAutomationRuleByID(context.Context, uint64) (*models.AutomationRule, error) {
	return nil, nil
}
func (s *stubRepo) UpdateAutomationRule(context.Context, uint64, map[string]any) error { return nil }
func (s *stubRepo) DeleteAutomationRule(context.Context, uint64) error                 { return nil }
func (s *stubRepo) ListAutomationRules(ctx context.Context, enabledOnly bool) ([]models.AutomationRule, error) {
	if s.listRulesFn != nil {
		return s.listRulesFn(ctx, enabledOnly)
	}
	return nil, nil
}

func (s *stubRepo) AnalyticsSummary(context.Context, string) (repository.AnalyticsSummary, error) {
	return repository.AnalyticsSummary{}, nil
}
func (s *stubRepo) CallsPerDay(context.Context, string, int) ([]repository.DayCount, error) {
	return nil, nil
}
func (s *stubRepo) LeadsByStatus(context.Context, string) ([]repository.StatusCount, error) {
	return nil, nil
}
