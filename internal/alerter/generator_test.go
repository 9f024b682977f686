package alerter

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/smartfactory/internal/metrics"
	"github.com/smartfactory/smartfactory/internal/types"
)

func newTestGenerator(store Store, rec *recorder, maxAlerts int) *Generator {
	return NewGenerator(store, rec, maxAlerts, zerolog.Nop(),
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(stepClock(time.Date(2025, 1, 29, 14, 0, 0, 0, time.UTC))),
		WithMetrics(metrics.New()),
	)
}

func TestGenerator_StartsDisabled(t *testing.T) {
	g := newTestGenerator(&memStore{}, &recorder{}, 10)
	assert.Equal(t, Status{Enabled: false, MaxAlerts: 10}, g.Status())
}

func TestGenerator_TickNoopWhenDisabled(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	for i := 0; i < 5; i++ {
		g.Tick(context.Background())
	}
	assert.Zero(t, store.inserts)
	assert.Zero(t, rec.count())
}

func TestGenerator_StartRunsOneCycle(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	res := g.Start(context.Background())
	assert.True(t, res.Status)
	assert.True(t, g.Status().Enabled)

	created := rec.named("new-alert")
	require.Len(t, created, 1)
	a := created[0].alert
	assert.NotZero(t, a.ID)
	assert.False(t, a.IsRead)
	assert.NotEmpty(t, a.Message)
	assert.True(t, a.Severity.Valid())
	assert.Equal(t, a.OccurredAt, a.CreatedAt)

	// start while enabled still produces one alert
	g.Start(context.Background())
	assert.Len(t, rec.named("new-alert"), 2)
}

func TestGenerator_StopIsIdempotent(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	g.Start(context.Background())
	before := rec.count()

	assert.False(t, g.Stop().Status)
	assert.False(t, g.Stop().Status)
	assert.False(t, g.Status().Enabled)
	assert.Equal(t, before, rec.count(), "stop never broadcasts")

	g.Tick(context.Background())
	assert.Equal(t, before, rec.count())

	g.Start(context.Background())
	assert.Equal(t, before+1, rec.count())
	assert.Len(t, rec.named("new-alert"), 2)
}

func TestGenerator_TickGeneratesWhenEnabled(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	g.Start(context.Background())
	g.Tick(context.Background())
	g.Tick(context.Background())

	created := rec.named("new-alert")
	require.Len(t, created, 3)
	assert.Less(t, created[0].id, created[1].id)
	assert.Less(t, created[1].id, created[2].id)
}

func TestGenerator_CapInvariant(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 3)

	g.Start(context.Background())
	for i := 0; i < 20; i++ {
		g.Tick(context.Background())
		total, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.LessOrEqual(t, total, int64(3))
	}

	assert.Len(t, rec.named("new-alert"), 21)
	assert.Len(t, rec.named("alert-deleted"), 18)
	assert.Equal(t, []uint{19, 20, 21}, store.ids())
}

func TestGenerator_CycleFailureIsSwallowed(t *testing.T) {
	store := &memStore{insertErr: errStoreDown}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	assert.NotPanics(t, func() {
		res := g.Start(context.Background())
		assert.True(t, res.Status)
	})
	assert.True(t, g.Status().Enabled, "a failed cycle leaves the generator running")
	assert.Zero(t, rec.count())

	store.mu.Lock()
	store.insertErr = nil
	store.mu.Unlock()

	g.Tick(context.Background())
	assert.Len(t, rec.named("new-alert"), 1, "later ticks keep working")
}

func TestGenerator_PanicInCycleIsRecovered(t *testing.T) {
	g := newTestGenerator(&memStore{}, &recorder{}, 10)
	g.rng = nil // Pick panics on a nil source

	assert.NotPanics(t, func() { g.Start(context.Background()) })

	g.rng = rand.New(rand.NewSource(2))
	assert.NotPanics(t, func() { g.Tick(context.Background()) })
}

func TestGenerator_EvictionFailureKeepsAlert(t *testing.T) {
	store := &memStore{countErr: errStoreDown}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 1)

	g.Start(context.Background())
	g.Tick(context.Background())

	assert.Len(t, rec.named("new-alert"), 2)
	assert.Empty(t, rec.named("alert-deleted"))

	store.mu.Lock()
	store.countErr = nil
	store.mu.Unlock()

	g.Tick(context.Background())
	assert.Len(t, store.ids(), 1, "next eviction catches up")
	assert.Len(t, rec.named("alert-deleted"), 2)
}

func TestGenerator_ClearAll(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	g.Start(context.Background())
	g.Tick(context.Background())
	g.Tick(context.Background())
	g.Stop()

	res, err := g.ClearAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.DeletedCount)
	assert.Len(t, rec.named("alerts-cleared"), 1)
	assert.Empty(t, rec.named("alert-deleted"))
	assert.Empty(t, store.ids())

	res, err = g.ClearAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.DeletedCount)
	assert.Len(t, rec.named("alerts-cleared"), 2, "clearing an empty store still signals")
}

func TestGenerator_ClearAllPropagatesFailure(t *testing.T) {
	store := &memStore{deleteErr: errStoreDown}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 10)

	_, err := g.ClearAll(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, rec.count())
}

func TestGenerator_Record(t *testing.T) {
	store := &memStore{}
	rec := &recorder{}
	g := newTestGenerator(store, rec, 2)

	for i := 0; i < 3; i++ {
		a := &types.Alert{Message: "manual", Severity: types.SeverityWarning}
		require.NoError(t, g.Record(context.Background(), a))
		assert.NotZero(t, a.ID)
	}

	assert.Len(t, rec.named("new-alert"), 3)
	deleted := rec.named("alert-deleted")
	require.Len(t, deleted, 1)
	assert.EqualValues(t, 1, deleted[0].id)
	assert.False(t, g.Status().Enabled, "manual records do not enable generation")

	store.insertErr = errStoreDown
	err := g.Record(context.Background(), &types.Alert{Message: "x"})
	assert.ErrorIs(t, err, errStoreDown)
	assert.Len(t, rec.named("new-alert"), 3)
}

func TestCatalog_Pick(t *testing.T) {
	c := DefaultCatalog()
	require.Len(t, c, 22)

	rng := rand.New(rand.NewSource(42))
	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		seen[c.Pick(rng).Message] = true
	}
	assert.Len(t, seen, len(c), "every template is reachable")

	for _, tpl := range c {
		assert.NotEmpty(t, tpl.Message)
		assert.True(t, tpl.Severity.Valid(), tpl.Message)
		if tpl.Device != "" {
			assert.NotEmpty(t, tpl.Area, "device alerts carry their area: %s", tpl.Message)
		}
	}
}

func TestTemplate_AlertNilRefs(t *testing.T) {
	now := time.Now()
	a := Template{Message: "Power system load high", Severity: types.SeverityError}.Alert(now)
	assert.Nil(t, a.DeviceRef)
	assert.Nil(t, a.AreaRef)
	assert.Equal(t, now, a.OccurredAt)
}
