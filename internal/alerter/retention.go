package alerter

import (
	"context"
	"fmt"

	"github.com/smartfactory/smartfactory/internal/types"
)

// Evictor keeps the stored alert count at or below a cap by removing the
// oldest records
type Evictor struct {
	store       Store
	broadcaster Broadcaster
	maxAlerts   int
}

// NewEvictor creates an evictor. maxAlerts below 1 is treated as 1.
func NewEvictor(store Store, broadcaster Broadcaster, maxAlerts int) *Evictor {
	if maxAlerts < 1 {
		maxAlerts = 1
	}
	return &Evictor{store: store, broadcaster: broadcaster, maxAlerts: maxAlerts}
}

// MaxAlerts returns the retention cap
func (e *Evictor) MaxAlerts() int {
	return e.maxAlerts
}

// Evict deletes the oldest excess records and announces each deleted id,
// oldest first. Ids are only announced once the batch delete succeeded.
// It returns the evicted ids.
func (e *Evictor) Evict(ctx context.Context) ([]uint, error) {
	total, err := e.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting alerts: %w", err)
	}
	excess := total - int64(e.maxAlerts)
	if excess <= 0 {
		return nil, nil
	}

	oldest, err := e.store.FindOrderedByCreatedAt(ctx, types.Ascending, int(excess))
	if err != nil {
		return nil, fmt.Errorf("loading %d oldest alerts: %w", excess, err)
	}
	if len(oldest) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(oldest))
	for i, a := range oldest {
		ids[i] = a.ID
	}
	if err := e.store.DeleteBatch(ctx, ids); err != nil {
		return nil, fmt.Errorf("evicting %d alerts: %w", len(ids), err)
	}

	for _, id := range ids {
		e.broadcaster.BroadcastDeleted(id)
	}
	return ids, nil
}
