// Package sync implements the reconciliation engine: create-or-update
// dispatch of client-held records against the canonical store, and the
// timestamp pull cursor. Both are transport-independent; the HTTP and
// websocket endpoints invoke them identically.
package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"crm/internal/models"
	"crm/internal/repository"
)

var (
	ErrScopeRequired = errors.New("agent scope required")
	ErrEmptyBatch    = errors.New("empty record batch")
	ErrUnknownEntity = errors.New("unknown entity type")
)

const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusError   = "error"
)

// Outcome is the per-record result of a push batch.
type Outcome struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Reconciler struct {
	Repo   repository.SyncRepository
	Logger *zap.Logger
}

// Reconcile applies each record independently, in the order supplied. A
// record with an id is an update; without one it is a creation under the
// caller's scope. One failing record never aborts the rest of the batch.
func (r *Reconciler) Reconcile(ctx context.Context, entity models.EntityType, records []map[string]any, agentID string) []Outcome {
	outcomes := make([]Outcome, 0, len(records))
	for _, record := range records {
		outcomes = append(outcomes, r.reconcileOne(ctx, entity, record, agentID))
	}
	return outcomes
}

func (r *Reconciler) reconcileOne(ctx context.Context, entity models.EntityType, record map[string]any, agentID string) Outcome {
	id, _ := record["id"].(string)

	fields, err := SanitizeFields(entity, record)
	if err != nil {
		return Outcome{ID: id, Status: StatusError, Error: err.Error()}
	}
	fields["sync_status"] = models.SyncStatusSynced

	if id != "" {
		// Update against a missing id is a silent no-op that still
		// reports updated; offline queues retry idempotently and must
		// not fail when the target is gone.
		if err := r.Repo.UpdateSyncable(ctx, entity, id, fields); err != nil {
			r.warn("reconcile update failed", entity, id, err)
			return Outcome{ID: id, Status: StatusError, Error: err.Error()}
		}
		return Outcome{ID: id, Status: StatusUpdated}
	}

	// Creation: the caller's scope always wins over whatever the payload
	// carried, so a client cannot create records under another agent.
	fields[ScopeField(entity)] = agentID
	created, err := r.Repo.CreateSyncable(ctx, entity, fields)
	if err != nil {
		r.warn("reconcile create failed", entity, "", err)
		return Outcome{Status: StatusError, Error: err.Error()}
	}
	return Outcome{ID: created.GetID(), Status: StatusCreated}
}

func (r *Reconciler) warn(msg string, entity models.EntityType, id string, err error) {
	if r.Logger == nil {
		return
	}
	r.Logger.Warn(msg,
		zap.String("entity", string(entity)),
		zap.String("id", id),
		zap.Error(err),
	)
}
