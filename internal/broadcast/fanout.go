package broadcast

import (
	"github.com/smartfactory/smartfactory/internal/alerter"
	"github.com/smartfactory/smartfactory/internal/types"
)

// Fanout forwards every event to each broadcaster in order
type Fanout []alerter.Broadcaster

func (f Fanout) BroadcastCreated(alert types.Alert) {
	for _, b := range f {
		b.BroadcastCreated(alert)
	}
}

func (f Fanout) BroadcastDeleted(id uint) {
	for _, b := range f {
		b.BroadcastDeleted(id)
	}
}

func (f Fanout) BroadcastCleared() {
	for _, b := range f {
		b.BroadcastCleared()
	}
}
