package sync

import (
	"context"
	"time"

	"crm/internal/models"
	"crm/internal/repository"
)

// PullCursor answers "what changed since T" per entity and agent. It has no
// side effects: the same T against an unchanged store returns the same set.
type PullCursor struct {
	Repo repository.SyncRepository
}

// Since returns records with updated_at strictly greater than t, most
// recently changed first. Lead visibility includes unassigned leads.
func (p *PullCursor) Since(ctx context.Context, entity models.EntityType, t time.Time, agentID string) ([]models.Syncable, error) {
	if !entity.Valid() {
		return nil, ErrUnknownEntity
	}
	if agentID == "" {
		return nil, ErrScopeRequired
	}
	return p.Repo.ListSyncableSince(ctx, entity, t, agentID)
}
