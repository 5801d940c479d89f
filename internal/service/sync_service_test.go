package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm/internal/bus"
	"crm/internal/models"
	syncengine "crm/internal/sync"
)

func newSyncService(repo *stubRepo) *SyncService {
	return &SyncService{
		Repo:         repo,
		Reconciler:   &syncengine.Reconciler{Repo: repo},
		Cursor:       &syncengine.PullCursor{Repo: repo},
		MaxBatchSize: 10,
	}
}

func TestPush_ValidationWritesNoLog(t *testing.T) {
	logged := 0
	repo := &stubRepo{
		insertLogFn: func(_ context.Context, _ *models.SyncLog) error {
			logged++
			return nil
		},
	}
	svc := newSyncService(repo)

	if _, err := svc.Push(context.Background(), "", models.EntityCalls, []map[string]any{{"a": "b"}}, ""); !errors.Is(err, syncengine.ErrScopeRequired) {
		t.Fatalf("err=%v want ErrScopeRequired", err)
	}
	if _, err := svc.Push(context.Background(), "agent-1", models.EntityType("widgets"), []map[string]any{{"a": "b"}}, ""); !errors.Is(err, syncengine.ErrUnknownEntity) {
		t.Fatalf("err=%v want ErrUnknownEntity", err)
	}
	if _, err := svc.Push(context.Background(), "agent-1", models.EntityCalls, nil, ""); !errors.Is(err, syncengine.ErrEmptyBatch) {
		t.Fatalf("err=%v want ErrEmptyBatch", err)
	}
	if logged != 0 {
		t.Fatalf("validation failures must not log, logged=%d", logged)
	}
}

func TestPush_BatchTooLarge(t *testing.T) {
	svc := newSyncService(&stubRepo{})
	svc.MaxBatchSize = 2
	records := []map[string]any{{}, {}, {}}
	if _, err := svc.Push(context.Background(), "agent-1", models.EntityCalls, records, ""); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("err=%v want ErrBatchTooLarge", err)
	}
}

func TestPush_LogsBatchSuccessDespiteRecordErrors(t *testing.T) {
	var gotLog *models.SyncLog
	repo := &stubRepo{
		createSyncableFn: func(_ context.Context, _ models.EntityType, _ map[string]any) (models.Syncable, error) {
			return nil, errors.New("boom")
		},
		insertLogFn: func(_ context.Context, item *models.SyncLog) error {
			gotLog = item
			return nil
		},
	}
	svc := newSyncService(repo)
	result, err := svc.Push(context.Background(), "agent-1", models.EntityCalls, []map[string]any{
		{"phone_number": "+1"},
		{"phone_number": "+2"},
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("count=%d want 2", result.Count)
	}
	for _, o := range result.Outcomes {
		if o.Status != syncengine.StatusError {
			t.Fatalf("outcome=%+v want error", o)
		}
	}
	if gotLog == nil {
		t.Fatalf("batch must be logged")
	}
	if gotLog.Status != models.SyncStatusSuccess {
		t.Fatalf("log status=%q want success", gotLog.Status)
	}
	if gotLog.RecordCount != 2 {
		t.Fatalf("log record count=%d want 2", gotLog.RecordCount)
	}
	if gotLog.SyncType != models.SyncTypeOffline {
		t.Fatalf("default sync type=%q want offline_sync", gotLog.SyncType)
	}
}

func TestPush_PublishesEvent(t *testing.T) {
	hub := bus.NewHub()
	events, cancel := hub.Subscribe(4)
	defer cancel()

	svc := newSyncService(&stubRepo{})
	svc.Bus = hub
	if _, err := svc.Push(context.Background(), "agent-1", models.EntityCalls, []map[string]any{{"phone_number": "+1"}}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case evt := <-events:
		if evt.Name != bus.EventSyncPushed {
			t.Fatalf("event=%q want %q", evt.Name, bus.EventSyncPushed)
		}
		if evt.AgentID != "agent-1" {
			t.Fatalf("agent=%q want agent-1", evt.AgentID)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event published")
	}
}

func TestPull_AllEntities(t *testing.T) {
	repo := &stubRepo{
		listSinceFn: func(_ context.Context, entity models.EntityType, _ time.Time, _ string) ([]models.Syncable, error) {
			switch entity {
			case models.EntityCalls:
				return []models.Syncable{models.Call{ID: "c1"}}, nil
			case models.EntityLeads:
				return []models.Syncable{models.Lead{ID: "l1"}, models.Lead{ID: "l2"}}, nil
			}
			return nil, nil
		},
	}
	svc := newSyncService(repo)
	result, err := svc.Pull(context.Background(), "agent-1", models.EntityAll, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 3 {
		t.Fatalf("count=%d want 3", result.Count)
	}
	if len(result.Records["calls"]) != 1 || len(result.Records["leads"]) != 2 {
		t.Fatalf("records=%v", result.Records)
	}
	if result.Records["reminders"] == nil {
		t.Fatalf("empty entity must map to empty slice, not nil")
	}
}

func TestPull_StoreErrorLogsError(t *testing.T) {
	var gotLog *models.SyncLog
	repo := &stubRepo{
		listSinceFn: func(_ context.Context, _ models.EntityType, _ time.Time, _ string) ([]models.Syncable, error) {
			return nil, errors.New("db down")
		},
		insertLogFn: func(_ context.Context, item *models.SyncLog) error {
			gotLog = item
			return nil
		},
	}
	svc := newSyncService(repo)
	if _, err := svc.Pull(context.Background(), "agent-1", models.EntityCalls, time.Time{}); err == nil {
		t.Fatalf("want error")
	}
	if gotLog == nil || gotLog.Status != models.SyncStatusError {
		t.Fatalf("log=%+v want error status", gotLog)
	}
	if gotLog.ErrorMessage == "" {
		t.Fatalf("error log must carry the message")
	}
}

func TestFullSync_SplitsPerEntity(t *testing.T) {
	var gotLog *models.SyncLog
	repo := &stubRepo{
		listSinceFn: func(_ context.Context, entity models.EntityType, _ time.Time, _ string) ([]models.Syncable, error) {
			if entity == models.EntityReminders {
				return []models.Syncable{models.Reminder{ID: "r1"}}, nil
			}
			return nil, nil
		},
		insertLogFn: func(_ context.Context, item *models.SyncLog) error {
			gotLog = item
			return nil
		},
	}
	svc := newSyncService(repo)
	result, err := svc.FullSync(context.Background(), "agent-1", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Reminders) != 1 || len(result.Calls) != 0 || len(result.Leads) != 0 {
		t.Fatalf("result=%+v", result)
	}
	if result.Calls == nil || result.Leads == nil {
		t.Fatalf("empty entities must be empty slices")
	}
	if gotLog == nil || gotLog.SyncType != models.SyncTypeFull || gotLog.DataType != string(models.EntityAll) {
		t.Fatalf("log=%+v want full/all", gotLog)
	}
	if gotLog.RecordCount != 1 {
		t.Fatalf("log record count=%d want 1", gotLog.RecordCount)
	}
}

func TestLastSync(t *testing.T) {
	want := &models.SyncLog{ID: 7, AgentID: "agent-1", DataType: "calls"}
	repo := &stubRepo{
		lastLogFn: func(_ context.Context, agentID, dataType string) (*models.SyncLog, error) {
			if agentID != "agent-1" || dataType != "calls" {
				t.Fatalf("agent=%q type=%q", agentID, dataType)
			}
			return want, nil
		},
	}
	svc := newSyncService(repo)
	got, err := svc.LastSync(context.Background(), "agent-1", "calls")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("got=%+v", got)
	}
	if _, err := svc.LastSync(context.Background(), "", "calls"); !errors.Is(err, syncengine.ErrScopeRequired) {
		t.Fatalf("err=%v want ErrScopeRequired", err)
	}
}

func TestPush_LogWriteFailureDoesNotFailPush(t *testing.T) {
	repo := &stubRepo{
		insertLogFn: func(_ context.Context, _ *models.SyncLog) error {
			return errors.New("log table gone")
		},
	}
	svc := newSyncService(repo)
	result, err := svc.Push(context.Background(), "agent-1", models.EntityCalls, []map[string]any{{"phone_number": "+1"}}, "")
	if err != nil {
		t.Fatalf("push must survive log failure: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("count=%d want 1", result.Count)
	}
}
