package sync

import (
	"context"
	"errors"
	"testing"

	"crm/internal/models"
)

func TestReconcile_CreateWithoutID(t *testing.T) {
	var gotFields map[string]any
	repo := &stubSyncRepo{
		createFn: func(_ context.Context, entity models.EntityType, fields map[string]any) (models.Syncable, error) {
			gotFields = fields
			return models.Call{ID: "new-call-1"}, nil
		},
	}
	r := &Reconciler{Repo: repo}
	outcomes := r.Reconcile(context.Background(), models.EntityCalls, []map[string]any{
		{"phone_number": "+15551234", "direction": "outbound"},
	}, "agent-1")
	if len(outcomes) != 1 {
		t.Fatalf("outcomes=%d want 1", len(outcomes))
	}
	if outcomes[0].Status != StatusCreated || outcomes[0].ID != "new-call-1" {
		t.Fatalf("outcome=%+v want created new-call-1", outcomes[0])
	}
	if gotFields["agent_id"] != "agent-1" {
		t.Fatalf("agent_id=%v want agent-1", gotFields["agent_id"])
	}
	if gotFields["sync_status"] != models.SyncStatusSynced {
		t.Fatalf("sync_status=%v want synced", gotFields["sync_status"])
	}
}

func TestReconcile_CreateScopeOverridesPayload(t *testing.T) {
	var gotFields map[string]any
	repo := &stubSyncRepo{
		createFn: func(_ context.Context, _ models.EntityType, fields map[string]any) (models.Syncable, error) {
			gotFields = fields
			return models.Call{ID: "c1"}, nil
		},
	}
	r := &Reconciler{Repo: repo}
	r.Reconcile(context.Background(), models.EntityCalls, []map[string]any{
		{"phone_number": "+1", "agent_id": "someone-else"},
	}, "agent-y")
	if gotFields["agent_id"] != "agent-y" {
		t.Fatalf("agent_id=%v want caller's agent-y", gotFields["agent_id"])
	}
}

func TestReconcile_LeadScopeField(t *testing.T) {
	var gotFields map[string]any
	repo := &stubSyncRepo{
		createFn: func(_ context.Context, _ models.EntityType, fields map[string]any) (models.Syncable, error) {
			gotFields = fields
			return models.Lead{ID: "l1"}, nil
		},
	}
	r := &Reconciler{Repo: repo}
	r.Reconcile(context.Background(), models.EntityLeads, []map[string]any{
		{"name": "Acme Corp"},
	}, "agent-1")
	if gotFields["assigned_to"] != "agent-1" {
		t.Fatalf("assigned_to=%v want agent-1", gotFields["assigned_to"])
	}
	if _, ok := gotFields["agent_id"]; ok {
		t.Fatalf("leads must scope by assigned_to, not agent_id")
	}
}

func TestReconcile_UpdateWithID(t *testing.T) {
	var gotID string
	var created bool
	repo := &stubSyncRepo{
		updateFn: func(_ context.Context, _ models.EntityType, id string, _ map[string]any) error {
			gotID = id
			return nil
		},
		createFn: func(_ context.Context, _ models.EntityType, _ map[string]any) (models.Syncable, error) {
			created = true
			return models.Call{}, nil
		},
	}
	r := &Reconciler{Repo: repo}
	outcomes := r.Reconcile(context.Background(), models.EntityCalls, []map[string]any{
		{"id": "existing-1", "notes": "updated notes"},
	}, "agent-1")
	if created {
		t.Fatalf("record with id must not create")
	}
	if gotID != "existing-1" {
		t.Fatalf("update id=%q want existing-1", gotID)
	}
	if outcomes[0].Status != StatusUpdated || outcomes[0].ID != "existing-1" {
		t.Fatalf("outcome=%+v want updated existing-1", outcomes[0])
	}
}

func TestReconcile_MissingIDReportsUpdated(t *testing.T) {
	// The store treats an update of an absent id as a no-op, and the
	// outcome still reads updated so offline retries stay idempotent.
	repo := &stubSyncRepo{
		updateFn: func(_ context.Context, _ models.EntityType, _ string, _ map[string]any) error {
			return nil
		},
	}
	r := &Reconciler{Repo: repo}
	outcomes := r.Reconcile(context.Background(), models.EntityCalls, []map[string]any{
		{"id": "never-existed", "notes": "x"},
	}, "agent-1")
	if outcomes[0].Status != StatusUpdated {
		t.Fatalf("status=%q want updated", outcomes[0].Status)
	}
}

func TestReconcile_PerRecordIsolation(t *testing.T) {
	calls := 0
	repo := &stubSyncRepo{
		createFn: func(_ context.Context, _ models.EntityType, _ map[string]any) (models.Syncable, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("constraint violation")
			}
			return models.Call{ID: "ok"}, nil
		},
	}
	r := &Reconciler{Repo: repo}
	outcomes := r.Reconcile(context.Background(), models.EntityCalls, []map[string]any{
		{"phone_number": "+1"},
		{"phone_number": "+2"},
		{"phone_number": "+3"},
	}, "agent-1")
	if len(outcomes) != 3 {
		t.Fatalf("outcomes=%d want 3", len(outcomes))
	}
	if outcomes[0].Status != StatusCreated || outcomes[2].Status != StatusCreated {
		t.Fatalf("neighbors of the failed record must succeed: %+v", outcomes)
	}
	if outcomes[1].Status != StatusError || outcomes[1].Error == "" {
		t.Fatalf("outcome[1]=%+v want error with message", outcomes[1])
	}
}

func TestReconcile_OutcomesKeepBatchOrder(t *testing.T) {
	n := 0
	repo := &stubSyncRepo{
		createFn: func(_ context.Context, _ models.EntityType, _ map[string]any) (models.Syncable, error) {
			n++
			return models.Call{ID: string(rune('a' + n - 1))}, nil
		},
	}
	r := &Reconciler{Repo: repo}
	outcomes := r.Reconcile(context.Background(), models.EntityCalls, []map[string]any{
		{"phone_number": "+1"}, {"phone_number": "+2"}, {"phone_number": "+3"},
	}, "agent-1")
	want := []string{"a", "b", "c"}
	for i, o := range outcomes {
		if o.ID != want[i] {
			t.Fatalf("outcomes out of order: %+v", outcomes)
		}
	}
}

func TestReconcile_SanitizeFailureFailsRecordOnly(t *testing.T) {
	repo := &stubSyncRepo{
		createFn: func(_ context.Context, _ models.EntityType, _ map[string]any) (models.Syncable, error) {
			return models.Reminder{ID: "r1"}, nil
		},
	}
	r := &Reconciler{Repo: repo}
	outcomes := r.Reconcile(context.Background(), models.EntityReminders, []map[string]any{
		{"title": "ok"},
		{"title": "bad", "due_at": "garbage"},
	}, "agent-1")
	if outcomes[0].Status != StatusCreated {
		t.Fatalf("outcome[0]=%+v want created", outcomes[0])
	}
	if outcomes[1].Status != StatusError {
		t.Fatalf("outcome[1]=%+v want error", outcomes[1])
	}
}
