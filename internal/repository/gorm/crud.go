package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crm/internal/models"
	"crm/internal/repository"
)

// --- Agents ------------------------------------------------------------------

func (s *Store) CreateAgent(ctx context.Context, item *models.Agent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Agent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAgentByEmail(ctx context.Context, email string) (*models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Agent
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateAgent(ctx context.Context, id string, updates map[string]any) error {
	if s == nil || s.db == nil || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Agent
	if err := s.db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Calls -------------------------------------------------------------------

func (s *Store) CreateCall(ctx context.Context, item *models.Call) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetCallByID(ctx context.Context, id string) (*models.Call, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Call
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateCall(ctx context.Context, id string, updates map[string]any) error {
	if s == nil || s.db == nil || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Call{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (s *Store) ListCalls(ctx context.Context, params repository.ListCallsParams) ([]models.Call, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyCallFilters(s.db.WithContext(ctx).Model(&models.Call{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Call
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCalls(ctx context.Context, params repository.ListCallsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyCallFilters(s.db.WithContext(ctx).Model(&models.Call{}), params).Count(&total).Error
	return total, err
}

func applyCallFilters(query *gorm.DB, params repository.ListCallsParams) *gorm.DB {
	if params.AgentID != nil && *params.AgentID != "" {
		query = query.Where("agent_id = ?", *params.AgentID)
	}
	if params.LeadID != nil && *params.LeadID != "" {
		query = query.Where("lead_id = ?", *params.LeadID)
	}
	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	} else {
		query = query.Where("status <> ?", models.StatusDeleted)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("created_at < ?", *params.Until)
	}
	return query
}

// --- Leads -------------------------------------------------------------------

func (s *Store) CreateLead(ctx context.Context, item *models.Lead) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Lead
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateLead(ctx context.Context, id string, updates map[string]any) error {
	if s == nil || s.db == nil || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClaimLead assigns an unclaimed lead to an agent. The NULL condition lives
// in the write itself, so two concurrent claims cannot both win; the loser
// matches zero rows.
func (s *Store) ClaimLead(ctx context.Context, id string, agentID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ? AND assigned_to IS NULL", id).
		Updates(map[string]any{"assigned_to": agentID})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) ListLeads(ctx context.Context, params repository.ListLeadsParams) ([]models.Lead, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyLeadFilters(s.db.WithContext(ctx).Model(&models.Lead{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Lead
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountLeads(ctx context.Context, params repository.ListLeadsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyLeadFilters(s.db.WithContext(ctx).Model(&models.Lead{}), params).Count(&total).Error
	return total, err
}

func applyLeadFilters(query *gorm.DB, params repository.ListLeadsParams) *gorm.DB {
	if params.AssignedTo != nil && *params.AssignedTo != "" {
		if params.IncludeUnassigned {
			query = query.Where("assigned_to = ? OR assigned_to IS NULL", *params.AssignedTo)
		} else {
			query = query.Where("assigned_to = ?", *params.AssignedTo)
		}
	}
	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	} else {
		query = query.Where("status <> ?", models.StatusDeleted)
	}
	if params.Source != nil && *params.Source != "" {
		query = query.Where("source = ?", *params.Source)
	}
	return query
}

// --- Reminders ---------------------------------------------------------------

func (s *Store) CreateReminder(ctx context.Context, item *models.Reminder) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetReminderByID(ctx context.Context, id string) (*models.Reminder, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Reminder
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateReminder(ctx context.Context, id string, updates map[string]any) error {
	if s == nil || s.db == nil || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (s *Store) ListReminders(ctx context.Context, params repository.ListRemindersParams) ([]models.Reminder, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyReminderFilters(s.db.WithContext(ctx).Model(&models.Reminder{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "due_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Reminder
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountReminders(ctx context.Context, params repository.ListRemindersParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyReminderFilters(s.db.WithContext(ctx).Model(&models.Reminder{}), params).Count(&total).Error
	return total, err
}

func applyReminderFilters(query *gorm.DB, params repository.ListRemindersParams) *gorm.DB {
	if params.AgentID != nil && *params.AgentID != "" {
		query = query.Where("agent_id = ?", *params.AgentID)
	}
	if params.LeadID != nil && *params.LeadID != "" {
		query = query.Where("lead_id = ?", *params.LeadID)
	}
	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	} else {
		query = query.Where("status <> ?", models.StatusDeleted)
	}
	if params.DueBy != nil && !params.DueBy.IsZero() {
		query = query.Where("due_at <= ?", *params.DueBy)
	}
	return query
}

func (s *Store) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	var items []models.Reminder
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ReminderStatusPending).
		Where("due_at IS NOT NULL AND due_at <= ?", now).
		Where("notified_at IS NULL").
		Order("due_at asc").
		Limit(normalizeLimit(limit, 200)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarkReminderNotified uses UpdateColumn so the due scan does not disturb
// updated_at: a notification marker must not surface the reminder to pull
// cursors as a fresh change.
func (s *Store) MarkReminderNotified(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ?", id).
		UpdateColumn("notified_at", at).Error
}

// --- Notifications -----------------------------------------------------------

func (s *Store) InsertNotification(ctx context.Context, item *models.Notification) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListNotifications(ctx context.Context, params repository.ListNotificationsParams) ([]models.Notification, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyNotificationFilters(s.db.WithContext(ctx).Model(&models.Notification{}), params)
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Notification
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountNotifications(ctx context.Context, params repository.ListNotificationsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyNotificationFilters(s.db.WithContext(ctx).Model(&models.Notification{}), params).Count(&total).Error
	return total, err
}

func applyNotificationFilters(query *gorm.DB, params repository.ListNotificationsParams) *gorm.DB {
	query = query.Where("agent_id = ?", params.AgentID)
	if params.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	return query
}

func (s *Store) MarkNotificationRead(ctx context.Context, agentID string, id uint64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND agent_id = ?", id, agentID).
		Update("read", true).Error
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, agentID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("agent_id = ? AND read = ?", agentID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// --- Automation rules --------------------------------------------------------

func (s *Store) CreateAutomationRule(ctx context.Context, item *models.AutomationRule) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetAutomationRuleByID(ctx context.Context, id uint64) (*models.AutomationRule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AutomationRule
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateAutomationRule(ctx context.Context, id uint64, updates map[string]any) error {
	if s == nil || s.db == nil || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.AutomationRule{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (s *Store) DeleteAutomationRule(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.AutomationRule{}).Error
}

func (s *Store) ListAutomationRules(ctx context.Context, enabledOnly bool) ([]models.AutomationRule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.AutomationRule{})
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	var items []models.AutomationRule
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Analytics ---------------------------------------------------------------

func (s *Store) AnalyticsSummary(ctx context.Context, agentID string) (repository.AnalyticsSummary, error) {
	var out repository.AnalyticsSummary
	if s == nil || s.db == nil {
		return out, nil
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Call{}).
		Where("agent_id = ? AND status <> ?", agentID, models.StatusDeleted).
		Count(&out.TotalCalls).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Call{}).
		Where("agent_id = ? AND status = ?", agentID, models.CallStatusCompleted).
		Count(&out.CompletedCalls).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Lead{}).
		Where("(assigned_to = ? OR assigned_to IS NULL) AND status <> ?", agentID, models.StatusDeleted).
		Count(&out.TotalLeads).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Lead{}).
		Where("assigned_to = ? AND status = ?", agentID, models.LeadStatusConverted).
		Count(&out.ConvertedLeads).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Reminder{}).
		Where("agent_id = ? AND status = ?", agentID, models.ReminderStatusPending).
		Count(&out.PendingReminders).Error; err != nil {
		return out, err
	}
	var pipeline struct {
		Total decimal.Decimal
	}
	err := db.Model(&models.Lead{}).
		Select("COALESCE(SUM(deal_value), 0) AS total").
		Where("assigned_to = ? AND status NOT IN ?", agentID, []string{models.LeadStatusLost, models.StatusDeleted}).
		Scan(&pipeline).Error
	if err != nil {
		return out, err
	}
	out.PipelineDealValue = pipeline.Total
	return out, nil
}

func (s *Store) CallsPerDay(ctx context.Context, agentID string, days int) ([]repository.DayCount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	var items []repository.DayCount
	err := s.db.WithContext(ctx).
		Model(&models.Call{}).
		Select("date_trunc('day', created_at) AS day, COUNT(*) AS count").
		Where("agent_id = ? AND created_at >= ? AND status <> ?", agentID, since, models.StatusDeleted).
		Group("day").
		Order("day asc").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) LeadsByStatus(ctx context.Context, agentID string) ([]repository.StatusCount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []repository.StatusCount
	err := s.db.WithContext(ctx).
		Model(&models.Lead{}).
		Select("status, COUNT(*) AS count").
		Where("assigned_to = ? OR assigned_to IS NULL", agentID).
		Group("status").
		Order("count desc").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
