package sync

import (
	"context"
	"time"

	"crm/internal/models"
)

// stubSyncRepo lets each test override only the calls it cares about.
type stubSyncRepo struct {
	createFn    func(ctx context.Context, entity models.EntityType, fields map[string]any) (models.Syncable, error)
	updateFn    func(ctx context.Context, entity models.EntityType, id string, fields map[string]any) error
	listFn      func(ctx context.Context, entity models.EntityType, since time.Time, agentID string) ([]models.Syncable, error)
	insertLogFn func(ctx context.Context, item *models.SyncLog) error
	lastLogFn   func(ctx context.Context, agentID string, dataType string) (*models.SyncLog, error)
}

func (s *stubSyncRepo) CreateSyncable(ctx context.Context, entity models.EntityType, fields map[string]any) (models.Syncable, error) {
	if s.createFn != nil {
		return s.createFn(ctx, entity, fields)
	}
	return models.Call{ID: "stub-id"}, nil
}

func (s *stubSyncRepo) UpdateSyncable(ctx context.Context, entity models.EntityType, id string, fields map[string]any) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, entity, id, fields)
	}
	return nil
}

func (s *stubSyncRepo) ListSyncableSince(ctx context.Context, entity models.EntityType, since time.Time, agentID string) ([]models.Syncable, error) {
	if s.listFn != nil {
		return s.listFn(ctx, entity, since, agentID)
	}
	return nil, nil
}

func (s *stubSyncRepo) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s.insertLogFn != nil {
		return s.insertLogFn(ctx, item)
	}
	return nil
}

func (s *stubSyncRepo) GetLastSyncLog(ctx context.Context, agentID string, dataType string) (*models.SyncLog, error) {
	if s.lastLogFn != nil {
		return s.lastLogFn(ctx, agentID, dataType)
	}
	return nil, nil
}
