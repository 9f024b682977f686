package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/smartfactory/internal/alerter"
	"github.com/smartfactory/smartfactory/internal/metrics"
	"github.com/smartfactory/smartfactory/internal/types"
)

func decode(t *testing.T, raw []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func drain(sub *Subscriber) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-sub.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestEncode(t *testing.T) {
	raw, err := Encode(EventAlertsCleared, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"alerts-cleared"}`, string(raw))

	raw, err = Encode(EventAlertDeleted, uint(42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"alert-deleted","data":42}`, string(raw))

	alert := types.Alert{ID: 3, Message: "Conveyor 1 jammed", Severity: types.SeverityWarning, DeviceRef: types.StrPtr("conveyor1")}
	raw, err = Encode(EventNewAlert, alert)
	require.NoError(t, err)
	env := decode(t, raw)
	assert.Equal(t, EventNewAlert, env.Event)

	var got types.Alert
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, uint(3), got.ID)
	assert.Equal(t, "conveyor1", *got.DeviceRef)
	assert.Nil(t, got.AreaRef)
}

func TestHub_PerObserverOrderAndLateJoin(t *testing.T) {
	hub := NewHub(8, zerolog.Nop(), nil)
	early := hub.Subscribe()

	hub.BroadcastCreated(types.Alert{ID: 1, Message: "first"})
	late := hub.Subscribe()
	hub.BroadcastCreated(types.Alert{ID: 2, Message: "second"})
	hub.BroadcastDeleted(1)

	earlyMsgs := drain(early)
	require.Len(t, earlyMsgs, 3)
	assert.Equal(t, EventNewAlert, decode(t, earlyMsgs[0]).Event)
	assert.Contains(t, string(earlyMsgs[0]), `"message":"first"`)
	assert.Contains(t, string(earlyMsgs[1]), `"message":"second"`)
	assert.JSONEq(t, `{"event":"alert-deleted","data":1}`, string(earlyMsgs[2]))

	lateMsgs := drain(late)
	require.Len(t, lateMsgs, 2, "no backlog for late observers")
	assert.Contains(t, string(lateMsgs[0]), `"message":"second"`)
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	m := metrics.New()
	hub := NewHub(1, zerolog.Nop(), m)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.BroadcastCleared()
		<-fast.Send
		hub.BroadcastCleared()
		hub.BroadcastCleared()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full observer")
	}

	assert.Len(t, drain(slow), 1)
	assert.Len(t, drain(fast), 1)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(4, zerolog.Nop(), nil)
	sub := hub.Subscribe()
	assert.Equal(t, 1, hub.Len())

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.Len())

	_, open := <-sub.Send
	assert.False(t, open)

	assert.NotPanics(t, func() { hub.BroadcastCleared() })
}

func TestHub_ConcurrentSubscribeAndPublish(t *testing.T) {
	hub := NewHub(64, zerolog.Nop(), nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe()
			hub.Unsubscribe(sub)
		}()
		go func(id uint) {
			defer wg.Done()
			hub.BroadcastDeleted(id)
		}(uint(i))
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Len())
}

func TestServeWS_EndToEnd(t *testing.T) {
	hub := NewHub(8, zerolog.Nop(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastCreated(types.Alert{ID: 9, Message: "Filler 1 speed anomaly", Severity: types.SeverityError})
	hub.BroadcastCleared()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	env := decode(t, first)
	assert.Equal(t, EventNewAlert, env.Event)
	assert.Contains(t, string(env.Data), `"id":9`)

	_, second, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"alerts-cleared"}`, string(second))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaRelay_WritesEnvelopes(t *testing.T) {
	w := &fakeWriter{}
	relay := newKafkaRelay(w, "factory-alerts", zerolog.Nop())

	relay.BroadcastCreated(types.Alert{ID: 5, Message: "Power system load high", Severity: types.SeverityError})
	relay.BroadcastDeleted(5)
	relay.BroadcastCleared()
	require.NoError(t, relay.Close())

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "factory-alerts", string(w.msgs[0].Key))
	assert.Contains(t, string(w.msgs[0].Value), `"event":"new-alert"`)
	assert.JSONEq(t, `{"event":"alert-deleted","data":5}`, string(w.msgs[1].Value))
	assert.JSONEq(t, `{"event":"alerts-cleared"}`, string(w.msgs[2].Value))
	assert.True(t, w.closed)
}

func TestKafkaRelay_LifecycleStaysOnOnePartition(t *testing.T) {
	w := &fakeWriter{}
	relay := newKafkaRelay(w, "factory-alerts", zerolog.Nop())

	relay.BroadcastCreated(types.Alert{ID: 7, Message: "Conveyor belt jam", Severity: types.SeverityWarning})
	relay.BroadcastCreated(types.Alert{ID: 8, Message: "Boiler pressure high", Severity: types.SeverityError})
	relay.BroadcastDeleted(7)
	relay.BroadcastCleared()
	require.Len(t, w.msgs, 4)

	partitions := []int{0, 1, 2, 3, 4, 5}
	balancer := &kafka.Hash{}
	want := balancer.Balance(w.msgs[0], partitions...)
	for i, msg := range w.msgs {
		assert.Equal(t, w.msgs[0].Key, msg.Key, "message %d", i)
		assert.Equal(t, want, balancer.Balance(msg, partitions...), "message %d", i)
	}

	events := make([]string, 0, len(w.msgs))
	for _, msg := range w.msgs {
		var env Envelope
		require.NoError(t, json.Unmarshal(msg.Value, &env))
		events = append(events, env.Event)
	}
	assert.Equal(t, []string{EventNewAlert, EventNewAlert, EventAlertDeleted, EventAlertsCleared}, events)
}

func TestNewKafkaRelay_Validation(t *testing.T) {
	_, err := NewKafkaRelay([]string{" ", ""}, "topic", zerolog.Nop())
	assert.Error(t, err)

	_, err = NewKafkaRelay([]string{"localhost:9092"}, "", zerolog.Nop())
	assert.Error(t, err)

	relay, err := NewKafkaRelay([]string{"localhost:9092"}, "factory-alerts", zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, relay.Close())
}

type countingBroadcaster struct {
	created, deleted, cleared int
}

func (c *countingBroadcaster) BroadcastCreated(types.Alert) { c.created++ }
func (c *countingBroadcaster) BroadcastDeleted(uint)        { c.deleted++ }
func (c *countingBroadcaster) BroadcastCleared()            { c.cleared++ }

func TestFanout(t *testing.T) {
	a, b := &countingBroadcaster{}, &countingBroadcaster{}
	var f alerter.Broadcaster = Fanout{a, b}

	f.BroadcastCreated(types.Alert{})
	f.BroadcastDeleted(1)
	f.BroadcastDeleted(2)
	f.BroadcastCleared()

	for _, c := range []*countingBroadcaster{a, b} {
		assert.Equal(t, 1, c.created)
		assert.Equal(t, 2, c.deleted)
		assert.Equal(t, 1, c.cleared)
	}
}
