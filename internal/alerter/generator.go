package alerter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartfactory/smartfactory/internal/metrics"
	"github.com/smartfactory/smartfactory/internal/types"
)

// Store is the persistence the generator and evictor need
type Store interface {
	Insert(ctx context.Context, alert *types.Alert) error
	Count(ctx context.Context) (int64, error)
	FindOrderedByCreatedAt(ctx context.Context, dir types.SortDirection, limit int) ([]types.Alert, error)
	DeleteBatch(ctx context.Context, ids []uint) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Broadcaster pushes alert events to connected observers.
// Implementations must not block the caller.
type Broadcaster interface {
	BroadcastCreated(alert types.Alert)
	BroadcastDeleted(id uint)
	BroadcastCleared()
}

// Status is the generator state reported to admin callers
type Status struct {
	Enabled   bool `json:"enabled"`
	MaxAlerts int  `json:"maxAlerts"`
}

// Toggle confirms a start or stop call
type Toggle struct {
	Message string `json:"message"`
	Status  bool   `json:"status"`
}

// ClearResult reports a clear-all call
type ClearResult struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// Generator produces synthetic alerts while enabled. It starts disabled;
// the enabled flag lives only in memory.
type Generator struct {
	store       Store
	broadcaster Broadcaster
	evictor     *Evictor
	catalog     Catalog
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	enabled atomic.Bool

	// cycleMu serializes generation cycles and manual records;
	// rng and the evictor are only used under it
	cycleMu sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithRand sets the random source used to pick templates
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithCatalog replaces the default templates. An empty catalog is ignored.
func WithCatalog(c Catalog) Option {
	return func(g *Generator) {
		if len(c) > 0 {
			g.catalog = c
		}
	}
}

// WithMetrics records generator activity
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a disabled generator
func NewGenerator(store Store, broadcaster Broadcaster, maxAlerts int, logger zerolog.Logger, opts ...Option) *Generator {
	g := &Generator{
		store:       store,
		broadcaster: broadcaster,
		evictor:     NewEvictor(store, broadcaster, maxAlerts),
		catalog:     DefaultCatalog(),
		logger:      logger.With().Str("component", "generator").Logger(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start enables generation and runs one cycle right away. A failed cycle
// is logged; the generator stays enabled.
func (g *Generator) Start(ctx context.Context) Toggle {
	g.enabled.Store(true)
	g.metrics.SetGeneratorEnabled(true)
	g.logger.Info().Msg("Alert generator started")

	g.cycle(ctx)

	return Toggle{Message: "alert generator started", Status: true}
}

// Stop disables tick-driven generation. A cycle already running finishes.
func (g *Generator) Stop() Toggle {
	if g.enabled.Swap(false) {
		g.logger.Info().Msg("Alert generator stopped")
	}
	g.metrics.SetGeneratorEnabled(false)
	return Toggle{Message: "alert generator stopped", Status: false}
}

// Status returns the current flag and retention cap
func (g *Generator) Status() Status {
	return Status{Enabled: g.enabled.Load(), MaxAlerts: g.evictor.MaxAlerts()}
}

// Tick is the scheduler callback. It does nothing while disabled and
// never returns an error.
func (g *Generator) Tick(ctx context.Context) {
	if !g.enabled.Load() {
		return
	}
	g.cycle(ctx)
}

// ClearAll deletes every stored alert and broadcasts a single cleared
// event, even when nothing was stored
func (g *Generator) ClearAll(ctx context.Context) (ClearResult, error) {
	g.cycleMu.Lock()
	defer g.cycleMu.Unlock()

	deleted, err := g.store.DeleteAll(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("Failed to clear alerts")
		return ClearResult{}, fmt.Errorf("clearing alerts: %w", err)
	}

	g.broadcaster.BroadcastCleared()
	g.metrics.AlertsCleared(deleted)
	g.logger.Info().Int64("deleted", deleted).Msg("Alerts cleared")

	return ClearResult{
		Message:      fmt.Sprintf("cleared %d alerts", deleted),
		DeletedCount: deleted,
	}, nil
}

// Record persists a manually created alert, announces it and applies
// the retention cap. Insert failures are returned; eviction failures are
// logged and retried on the next insert.
func (g *Generator) Record(ctx context.Context, alert *types.Alert) error {
	g.cycleMu.Lock()
	defer g.cycleMu.Unlock()

	if err := g.store.Insert(ctx, alert); err != nil {
		return err
	}
	g.broadcaster.BroadcastCreated(*alert)
	g.evict(ctx)
	return nil
}

// cycle runs one generation sequence and swallows every failure
func (g *Generator) cycle(ctx context.Context) {
	g.cycleMu.Lock()
	defer g.cycleMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			g.metrics.GenerationFailed()
			g.logger.Error().Interface("panic", r).Msg("Alert generation panicked")
		}
	}()

	if err := g.generate(ctx); err != nil {
		g.metrics.GenerationFailed()
		g.logger.Error().Err(err).Msg("Failed to generate alert")
	}
}

func (g *Generator) generate(ctx context.Context) error {
	tpl := g.catalog.Pick(g.rng)
	alert := tpl.Alert(g.now())

	if err := g.store.Insert(ctx, &alert); err != nil {
		return fmt.Errorf("persisting generated alert: %w", err)
	}
	g.metrics.AlertGenerated(string(alert.Severity))

	g.logger.Debug().
		Uint("id", alert.ID).
		Str("severity", string(alert.Severity)).
		Str("message", alert.Message).
		Msg("Generated alert")

	g.broadcaster.BroadcastCreated(alert)
	g.evict(ctx)
	return nil
}

func (g *Generator) evict(ctx context.Context) {
	ids, err := g.evictor.Evict(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("Failed to evict old alerts")
		return
	}
	if len(ids) > 0 {
		g.metrics.AlertsEvicted(len(ids))
		g.logger.Debug().Int("evicted", len(ids)).Msg("Evicted old alerts")
	}
}
