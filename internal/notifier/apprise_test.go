package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/smartfactory/internal/types"
)

type captured struct {
	path    string
	payload map[string]string
}

func newApprise(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		got = append(got, captured{path: r.URL.EscapedPath(), payload: p})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func TestNotifier_SendsSelectedSeverities(t *testing.T) {
	srv, received := newApprise(t, http.StatusOK)
	n := NewNotifier(srv.URL+"/", []string{"ops", "oncall"}, []string{"ERROR"}, zerolog.Nop())

	n.BroadcastCreated(types.Alert{
		ID:         7,
		Message:    "Reactor 1 over temperature",
		Severity:   types.SeverityError,
		DeviceRef:  types.StrPtr("reactor1"),
		AreaRef:    types.StrPtr("production"),
		OccurredAt: time.Date(2025, 1, 29, 14, 0, 0, 0, time.UTC),
	})
	n.BroadcastCreated(types.Alert{ID: 8, Message: "routine", Severity: types.SeverityInfo})
	n.BroadcastDeleted(7)
	n.BroadcastCleared()
	n.Wait()

	got := received()
	require.Len(t, got, 2)
	assert.Equal(t, "/notify/ops", got[0].path)
	assert.Equal(t, "/notify/oncall", got[1].path)

	body := got[0].payload["body"]
	assert.Contains(t, body, "Reactor 1 over temperature")
	assert.Contains(t, body, "Device: reactor1")
	assert.Contains(t, body, "Area: production")
	assert.Equal(t, "Smart Factory: error", got[0].payload["title"])
	assert.Equal(t, "text", got[0].payload["format"])
}

func TestNotifier_ServiceURLTargetIsEscaped(t *testing.T) {
	srv, received := newApprise(t, http.StatusOK)
	n := NewNotifier(srv.URL, []string{"slack://a/b/c"}, []string{"warning"}, zerolog.Nop())

	n.BroadcastCreated(types.Alert{ID: 1, Message: "Conveyor 1 jammed", Severity: types.SeverityWarning})
	n.Wait()

	got := received()
	require.Len(t, got, 1)
	assert.Equal(t, "/notify/slack:%2F%2Fa%2Fb%2Fc", got[0].path)
}

func TestNotifier_ErrorStatus(t *testing.T) {
	srv, _ := newApprise(t, http.StatusInternalServerError)
	n := NewNotifier(srv.URL, []string{"ops"}, []string{"error"}, zerolog.Nop())

	err := n.sendToApprise("ops", "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "slack://***", redact("slack://tokenA/tokenB"))
	assert.Equal(t, "ops", redact("ops"))
}
