package alerter

import (
	"math/rand"
	"time"

	"github.com/smartfactory/smartfactory/internal/types"
)

// Template is a seed for one synthetic alert. Empty refs mean the alert
// is area-level or system-level.
type Template struct {
	Message  string
	Severity types.Severity
	Device   string
	Area     string
}

// Alert builds an unread record from the template stamped at now
func (t Template) Alert(now time.Time) types.Alert {
	return types.Alert{
		OccurredAt: now,
		Message:    t.Message,
		Severity:   t.Severity,
		DeviceRef:  types.StrPtr(t.Device),
		AreaRef:    types.StrPtr(t.Area),
		IsRead:     false,
		CreatedAt:  now,
	}
}

// Catalog is the static list of templates the generator draws from
type Catalog []Template

// Pick returns a uniformly random template. The catalog must not be empty.
func (c Catalog) Pick(rng *rand.Rand) Template {
	return c[rng.Intn(len(c))]
}

// DefaultCatalog follows the seeded layout: warehouse, feeding, production,
// cleaning, filling, finished goods, then system-wide alerts.
func DefaultCatalog() Catalog {
	return Catalog{
		{"Forklift 1 battery low", types.SeverityInfo, "forklift1", "warehouse"},
		{"Warehouse temperature high", types.SeverityWarning, "", "warehouse"},
		{"Warehouse stock running low", types.SeverityWarning, "shelf1", "warehouse"},

		{"Feeding area material short", types.SeverityInfo, "", "feeding"},
		{"Feeder 1 speed anomaly", types.SeverityError, "feeder1", "feeding"},
		{"Conveyor 1 jammed", types.SeverityWarning, "conveyor1", "feeding"},

		{"Reactor 1 over temperature", types.SeverityError, "reactor1", "production"},
		{"Mixer 1 speed anomaly", types.SeverityWarning, "mixer1", "production"},
		{"Material pump 1 pressure high", types.SeverityError, "pump1", "production"},
		{"Production hall air quality alarm", types.SeverityWarning, "", "production"},

		{"Dryer 1 temperature too low", types.SeverityInfo, "dryer1", "cleaning"},
		{"Washer 1 needs maintenance", types.SeverityWarning, "washer1", "cleaning"},
		{"Cleaning water quality check failed", types.SeverityError, "", "cleaning"},

		{"Filling area humidity high", types.SeverityInfo, "", "filling"},
		{"Filler 1 speed anomaly", types.SeverityError, "filler1", "filling"},
		{"Capper 1 pressure low", types.SeverityWarning, "capper1", "filling"},
		{"Labeler 1 out of labels", types.SeverityWarning, "labeler1", "filling"},

		{"Forklift 2 needs charging", types.SeverityInfo, "forklift2", "finished_goods"},
		{"Finished goods storage near capacity", types.SeverityWarning, "shelf2", "finished_goods"},

		{"Scheduled system maintenance reminder", types.SeverityInfo, "", ""},
		{"Network connection unstable", types.SeverityWarning, "", ""},
		{"Power system load high", types.SeverityError, "", ""},
	}
}
