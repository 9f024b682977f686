package alerter

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartfactory/smartfactory/internal/storage"
	"github.com/smartfactory/smartfactory/internal/types"
)

func newSQLiteStore(t *testing.T) *storage.AlertStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(storage.Models...))
	t.Cleanup(func() { sqlDB.Close() })
	return storage.NewAlertStore(db)
}

func seedAlerts(t *testing.T, s Store, n int) []uint {
	t.Helper()
	base := time.Date(2025, 1, 29, 14, 0, 0, 0, time.UTC)
	ids := make([]uint, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		a := types.Alert{Message: "seeded", Severity: types.SeverityInfo, OccurredAt: at, CreatedAt: at}
		require.NoError(t, s.Insert(context.Background(), &a))
		ids[i] = a.ID
	}
	return ids
}

func TestEvictor_KeepsNewest(t *testing.T) {
	store := newSQLiteStore(t)
	rec := &recorder{}
	ids := seedAlerts(t, store, 12)

	evicted, err := NewEvictor(store, rec, 10).Evict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ids[:2], evicted)

	deleted := rec.named("alert-deleted")
	require.Len(t, deleted, 2)
	assert.Equal(t, ids[0], deleted[0].id)
	assert.Equal(t, ids[1], deleted[1].id)

	remaining, err := store.FindOrderedByCreatedAt(context.Background(), types.Ascending, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 10)
	for i, a := range remaining {
		assert.Equal(t, ids[i+2], a.ID)
	}
}

func TestEvictor_NoopUnderCap(t *testing.T) {
	store := newSQLiteStore(t)
	rec := &recorder{}
	seedAlerts(t, store, 10)

	evicted, err := NewEvictor(store, rec, 10).Evict(context.Background())
	require.NoError(t, err)
	assert.Empty(t, evicted)
	assert.Zero(t, rec.count())
}

func TestEvictor_DeleteFailureAnnouncesNothing(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	seedAlerts(t, store, 3)
	store.deleteErr = errStoreDown

	_, err := NewEvictor(store, rec, 1).Evict(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, rec.count())
	assert.Len(t, store.ids(), 3)
}

func TestEvictor_MinimumCap(t *testing.T) {
	assert.Equal(t, 1, NewEvictor(&memStore{}, &recorder{}, 0).MaxAlerts())
}

func TestGenerator_CapWithSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	g.Start(context.Background())
	for i := 0; i < 14; i++ {
		g.Tick(context.Background())
	}

	total, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)
	assert.Len(t, rec.named("alert-deleted"), 5)

	res, err := g.ClearAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.DeletedCount)
}
