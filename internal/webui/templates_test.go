package webui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/smartfactory/internal/types"
)

func TestDashboardRenders(t *testing.T) {
	data := PageData{
		Version:   "dev",
		Commit:    "abc123",
		Uptime:    "5m",
		WSPath:    "/ws/alerts",
		Generator: GeneratorInfo{Enabled: true, MaxAlerts: 10},
		Devices:   DeviceSummary{Total: 14, Running: 9, Efficiency: 64},
		Alerts: []types.Alert{{
			ID:         4,
			Message:    "Filler 1 speed anomaly <b>",
			Severity:   types.SeverityError,
			DeviceRef:  types.StrPtr("filler1"),
			AreaRef:    types.StrPtr("filling"),
			OccurredAt: time.Now(),
		}},
		Logs: []LogEntry{{Timestamp: time.Now(), Level: "warn", Component: "hub", Message: "Observer queue full"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Templates.ExecuteTemplate(&buf, "base", data))
	html := buf.String()

	assert.Contains(t, html, `class="sev-error" data-id="4" data-device="filler1"`)
	assert.Contains(t, html, "Filler 1 speed anomaly &lt;b&gt;")
	assert.Contains(t, html, `class="log-warn"`)
	assert.Contains(t, html, "[hub] Observer queue full")
	assert.Contains(t, html, `badge on`)
	assert.Regexp(t, `const maxAlerts =\s*10\s*;`, html)
	assert.Contains(t, html, "64%")
}
