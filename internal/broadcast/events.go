package broadcast

import (
	"encoding/json"
	"fmt"
)

// Event names on the wire
const (
	EventNewAlert      = "new-alert"
	EventAlertDeleted  = "alert-deleted"
	EventAlertsCleared = "alerts-cleared"
)

// Envelope is the frame sent to observers. Data is omitted for events
// without a payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an event with an optional payload
func Encode(event string, data interface{}) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
