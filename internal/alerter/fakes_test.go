package alerter

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/smartfactory/smartfactory/internal/types"
)

// memStore is an in-memory Store with optional injected failures
type memStore struct {
	mu        sync.Mutex
	nextID    uint
	alerts    []types.Alert
	inserts   int
	insertErr error
	countErr  error
	deleteErr error
}

func (s *memStore) Insert(_ context.Context, a *types.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	a.ID = s.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.inserts++
	s.alerts = append(s.alerts, *a)
	return nil
}

func (s *memStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return int64(len(s.alerts)), nil
}

func (s *memStore) FindOrderedByCreatedAt(_ context.Context, dir types.SortDirection, limit int) ([]types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]types.Alert(nil), s.alerts...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if dir == types.Descending {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if dir == types.Descending {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) DeleteBatch(_ context.Context, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	drop := make(map[uint]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if !drop[a.ID] {
			kept = append(kept, a)
		}
	}
	s.alerts = kept
	return nil
}

func (s *memStore) DeleteAll(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	n := int64(len(s.alerts))
	s.alerts = nil
	return n, nil
}

func (s *memStore) ids() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, len(s.alerts))
	for i, a := range s.alerts {
		ids[i] = a.ID
	}
	return ids
}

type event struct {
	name  string
	id    uint
	alert types.Alert
}

// recorder captures broadcasts in call order
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) BroadcastCreated(a types.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name: "new-alert", id: a.ID, alert: a})
}

func (r *recorder) BroadcastDeleted(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name: "alert-deleted", id: id})
}

func (r *recorder) BroadcastCleared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name: "alerts-cleared"})
}

func (r *recorder) named(name string) []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

var errStoreDown = errors.New("store down")

// stepClock returns strictly increasing times one second apart
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
