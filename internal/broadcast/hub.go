package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartfactory/smartfactory/internal/metrics"
	"github.com/smartfactory/smartfactory/internal/types"
)

// DefaultSendBuffer is the per-observer queue length
const DefaultSendBuffer = 32

// Subscriber is one attached observer. Send is closed on unsubscribe.
type Subscriber struct {
	ID   uuid.UUID
	Send chan []byte
}

// Hub fans events out to every attached observer. Delivery is
// fire-and-forget: an observer whose queue is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Subscriber

	sendBuffer int
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewHub creates an empty hub. m may be nil.
func NewHub(sendBuffer int, logger zerolog.Logger, m *metrics.Metrics) *Hub {
	if sendBuffer < 1 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		clients:    make(map[uuid.UUID]*Subscriber),
		sendBuffer: sendBuffer,
		logger:     logger.With().Str("component", "hub").Logger(),
		metrics:    m,
	}
}

// Subscribe attaches a new observer. It only sees events published afterwards.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:   uuid.New(),
		Send: make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	h.clients[sub.ID] = sub
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetObservers(n)
	return sub
}

// Unsubscribe detaches sub and closes its queue. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.clients[sub.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, sub.ID)
	close(sub.Send)
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetObservers(n)
}

// Len returns the number of attached observers
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers msg to every observer attached right now without blocking
func (h *Hub) Publish(event string, msg []byte) {
	h.metrics.EventBroadcast(event)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, sub := range h.clients {
		select {
		case sub.Send <- msg:
		default:
			h.metrics.DeliveryDropped()
			h.logger.Warn().
				Str("observer", id.String()).
				Str("event", event).
				Msg("Observer queue full, event dropped")
		}
	}
}

func (h *Hub) emit(event string, data interface{}) {
	msg, err := Encode(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}
	h.Publish(event, msg)
}

// BroadcastCreated sends the full alert record
func (h *Hub) BroadcastCreated(alert types.Alert) {
	h.emit(EventNewAlert, alert)
}

// BroadcastDeleted sends the bare id of a removed alert
func (h *Hub) BroadcastDeleted(id uint) {
	h.emit(EventAlertDeleted, id)
}

// BroadcastCleared tells observers to drop every cached alert
func (h *Hub) BroadcastCleared() {
	h.emit(EventAlertsCleared, nil)
}

// Close detaches every observer
func (h *Hub) Close() {
	h.mu.Lock()
	for id, sub := range h.clients {
		delete(h.clients, id)
		close(sub.Send)
	}
	h.mu.Unlock()
	h.metrics.SetObservers(0)
}
