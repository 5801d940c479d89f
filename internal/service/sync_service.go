package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crm/internal/bus"
	"crm/internal/models"
	"crm/internal/repository"
	syncengine "crm/internal/sync"
)

var ErrBatchTooLarge = errors.New("record batch too large")

// SyncService orchestrates the reconciler, the pull cursor and the sync log
// into one request/response cycle. Both the HTTP handlers and the websocket
// hub call it with identical semantics.
type SyncService struct {
	Repo         repository.SyncRepository
	Bus          bus.Bus
	Logger       *zap.Logger
	Reconciler   *syncengine.Reconciler
	Cursor       *syncengine.PullCursor
	MaxBatchSize int
}

type PushResult struct {
	Outcomes  []syncengine.Outcome `json:"outcomes"`
	Count     int                  `json:"count"`
	Timestamp time.Time            `json:"timestamp"`
}

type PullResult struct {
	Records   map[string][]models.Syncable `json:"records"`
	Count     int                          `json:"count"`
	Timestamp time.Time                    `json:"timestamp"`
}

type FullSyncResult struct {
	Calls     []models.Syncable `json:"calls"`
	Leads     []models.Syncable `json:"leads"`
	Reminders []models.Syncable `json:"reminders"`
	Timestamp time.Time         `json:"timestamp"`
}

// Push reconciles a client batch. Validation failures reject before any
// store access and write no log entry. Per-record errors stay inside the
// outcome array; the batch-level log records the attempted batch size and
// success regardless of them.
func (s *SyncService) Push(ctx context.Context, agentID string, entity models.EntityType, records []map[string]any, syncType string) (PushResult, error) {
	if agentID == "" {
		return PushResult{}, syncengine.ErrScopeRequired
	}
	if !entity.Valid() {
		return PushResult{}, fmt.Errorf("%w: %q", syncengine.ErrUnknownEntity, entity)
	}
	if len(records) == 0 {
		return PushResult{}, syncengine.ErrEmptyBatch
	}
	if s.MaxBatchSize > 0 && len(records) > s.MaxBatchSize {
		return PushResult{}, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(records), s.MaxBatchSize)
	}
	if syncType == "" {
		syncType = models.SyncTypeOffline
	}

	outcomes := s.Reconciler.Reconcile(ctx, entity, records, agentID)
	s.logSync(ctx, agentID, syncType, string(entity), len(records), models.SyncStatusSuccess, "")
	s.publish(ctx, entity, agentID, len(records))

	return PushResult{
		Outcomes:  outcomes,
		Count:     len(outcomes),
		Timestamp: time.Now().UTC(),
	}, nil
}

// Pull fetches changes since a cursor. It either fully succeeds or fully
// fails; a store error logs the sync as error and surfaces to the caller.
func (s *SyncService) Pull(ctx context.Context, agentID string, entity models.EntityType, since time.Time) (PullResult, error) {
	if agentID == "" {
		return PullResult{}, syncengine.ErrScopeRequired
	}
	entities := []models.EntityType{entity}
	if entity == models.EntityAll {
		entities = models.SyncableEntities()
	} else if !entity.Valid() {
		return PullResult{}, fmt.Errorf("%w: %q", syncengine.ErrUnknownEntity, entity)
	}

	out := PullResult{Records: map[string][]models.Syncable{}}
	for _, e := range entities {
		items, err := s.Cursor.Since(ctx, e, since, agentID)
		if err != nil {
			s.logSync(ctx, agentID, models.SyncTypeOnline, string(entity), 0, models.SyncStatusError, err.Error())
			return PullResult{}, err
		}
		if items == nil {
			items = []models.Syncable{}
		}
		out.Records[string(e)] = items
		out.Count += len(items)
	}
	s.logSync(ctx, agentID, models.SyncTypeOnline, string(entity), out.Count, models.SyncStatusSuccess, "")
	out.Timestamp = time.Now().UTC()
	return out, nil
}

// FullSync is the bidirectional bootstrap pull: every entity type cursored
// independently from lastSync.
func (s *SyncService) FullSync(ctx context.Context, agentID string, lastSync time.Time) (FullSyncResult, error) {
	if agentID == "" {
		return FullSyncResult{}, syncengine.ErrScopeRequired
	}
	out := FullSyncResult{
		Calls:     []models.Syncable{},
		Leads:     []models.Syncable{},
		Reminders: []models.Syncable{},
	}
	total := 0
	for _, e := range models.SyncableEntities() {
		items, err := s.Cursor.Since(ctx, e, lastSync, agentID)
		if err != nil {
			s.logSync(ctx, agentID, models.SyncTypeFull, string(models.EntityAll), 0, models.SyncStatusError, err.Error())
			return FullSyncResult{}, err
		}
		if items == nil {
			items = []models.Syncable{}
		}
		total += len(items)
		switch e {
		case models.EntityCalls:
			out.Calls = items
		case models.EntityLeads:
			out.Leads = items
		case models.EntityReminders:
			out.Reminders = items
		}
	}
	s.logSync(ctx, agentID, models.SyncTypeFull, string(models.EntityAll), total, models.SyncStatusSuccess, "")
	out.Timestamp = time.Now().UTC()
	return out, nil
}

func (s *SyncService) LastSync(ctx context.Context, agentID string, dataType string) (*models.SyncLog, error) {
	if agentID == "" {
		return nil, syncengine.ErrScopeRequired
	}
	return s.Repo.GetLastSyncLog(ctx, agentID, dataType)
}

// logSync is best-effort observability; a failed log write never fails the
// surrounding sync.
func (s *SyncService) logSync(ctx context.Context, agentID, syncType, dataType string, count int, status, errMsg string) {
	err := s.Repo.InsertSyncLog(ctx, &models.SyncLog{
		AgentID:      agentID,
		SyncType:     syncType,
		DataType:     dataType,
		RecordCount:  count,
		Status:       status,
		ErrorMessage: errMsg,
	})
	if err != nil && s.Logger != nil {
		s.Logger.Warn("sync log write failed",
			zap.String("agent_id", agentID),
			zap.String("data_type", dataType),
			zap.Error(err),
		)
	}
}

func (s *SyncService) publish(ctx context.Context, entity models.EntityType, agentID string, count int) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(ctx, bus.Event{
		Name:    bus.EventSyncPushed,
		AgentID: agentID,
		Payload: map[string]any{
			"entity":   string(entity),
			"agent_id": agentID,
			"count":    count,
		},
	})
}
