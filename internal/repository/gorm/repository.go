package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"crm/internal/models"
	"crm/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.Repository = (*Store)(nil)

// --- Syncable dispatch -------------------------------------------------------

func (s *Store) CreateSyncable(ctx context.Context, entity models.EntityType, fields map[string]any) (models.Syncable, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store unavailable")
	}
	switch entity {
	case models.EntityCalls:
		var item models.Call
		if err := decodeFields(fields, &item); err != nil {
			return nil, err
		}
		item.ID = ""
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
		return item, nil
	case models.EntityLeads:
		var item models.Lead
		if err := decodeFields(fields, &item); err != nil {
			return nil, err
		}
		item.ID = ""
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
		return item, nil
	case models.EntityReminders:
		var item models.Reminder
		if err := decodeFields(fields, &item); err != nil {
			return nil, err
		}
		item.ID = ""
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
		return item, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entity)
}

// UpdateSyncable applies a partial field update. updated_at is refreshed by
// the store on every call regardless of client-supplied values. An id with
// no matching row is a no-op, not an error.
func (s *Store) UpdateSyncable(ctx context.Context, entity models.EntityType, id string, fields map[string]any) error {
	if s == nil || s.db == nil {
		return errors.New("store unavailable")
	}
	if len(fields) == 0 {
		fields = map[string]any{"sync_status": models.SyncStatusSynced}
	}
	model, err := entityModel(entity)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Updates(fields).Error
}

// ListSyncableSince returns records with updated_at strictly greater than
// since, most recently changed first. Leads are visible when assigned to the
// agent or unassigned; calls and reminders only on exact scope match.
func (s *Store) ListSyncableSince(ctx context.Context, entity models.EntityType, since time.Time, agentID string) ([]models.Syncable, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store unavailable")
	}
	query := s.db.WithContext(ctx).
		Where("updated_at > ?", since).
		Order("updated_at desc")
	switch entity {
	case models.EntityCalls:
		var items []models.Call
		if err := query.Where("agent_id = ?", agentID).Find(&items).Error; err != nil {
			return nil, err
		}
		out := make([]models.Syncable, 0, len(items))
		for _, it := range items {
			out = append(out, it)
		}
		return out, nil
	case models.EntityLeads:
		var items []models.Lead
		if err := query.Where("assigned_to = ? OR assigned_to IS NULL", agentID).Find(&items).Error; err != nil {
			return nil, err
		}
		out := make([]models.Syncable, 0, len(items))
		for _, it := range items {
			out = append(out, it)
		}
		return out, nil
	case models.EntityReminders:
		var items []models.Reminder
		if err := query.Where("agent_id = ?", agentID).Find(&items).Error; err != nil {
			return nil, err
		}
		out := make([]models.Syncable, 0, len(items))
		for _, it := range items {
			out = append(out, it)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entity)
}

// --- Sync logs ---------------------------------------------------------------

func (s *Store) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetLastSyncLog(ctx context.Context, agentID string, dataType string) (*models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.SyncLog{}).
		Where("agent_id = ?", agentID)
	if dataType != "" {
		query = query.Where("data_type = ?", dataType)
	}
	var item models.SyncLog
	err := query.Order("created_at desc").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SyncLog{})
	if params.AgentID != nil && *params.AgentID != "" {
		query = query.Where("agent_id = ?", *params.AgentID)
	}
	if params.DataType != nil && *params.DataType != "" {
		query = query.Where("data_type = ?", *params.DataType)
	}
	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.SyncLog
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteSyncLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.SyncLog{})
	return res.RowsAffected, res.Error
}

// --- helpers -----------------------------------------------------------------

func entityModel(entity models.EntityType) (any, error) {
	switch entity {
	case models.EntityCalls:
		return &models.Call{}, nil
	case models.EntityLeads:
		return &models.Lead{}, nil
	case models.EntityReminders:
		return &models.Reminder{}, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entity)
}

// decodeFields moves a sanitized field map into a typed model through its
// json tags, so partial client payloads and typed columns stay aligned.
func decodeFields(fields map[string]any, out any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, def string) *gorm.DB {
	col := def
	if orderBy != "" {
		col = orderBy
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(col + " " + dir)
}
