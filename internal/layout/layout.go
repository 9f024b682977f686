package layout

import (
	"github.com/smartfactory/smartfactory/internal/factory"
)

// DefaultCurvePoints is the sample count used for connector animations
const DefaultCurvePoints = 5

// Layout is the floor plan rendered into pixels
type Layout struct {
	GridSize    float64     `json:"gridSize"`
	Height      float64     `json:"height"`
	Areas       []AreaShape `json:"areas"`
	Connections []Connector `json:"connections"`
}

type AreaShape struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Status  string        `json:"status"`
	Rect    Rect          `json:"rect"`
	Devices []DeviceShape `json:"devices"`
}

type DeviceShape struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	At     Point  `json:"at"`
}

// Connector is a drawn connection; Points samples its curve
type Connector struct {
	From      string            `json:"from"`
	To        string            `json:"to"`
	Type      string            `json:"type"`
	Component factory.Component `json:"component"`
	Anchors   Anchors           `json:"anchors"`
	Path      string            `json:"path"`
	Points    []Point           `json:"points"`
}

// Build renders data at the given scale. Non-positive sizes use the defaults.
// Connections whose areas are missing are skipped.
func Build(data *factory.Data, gridSize, height float64) *Layout {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	if height <= 0 {
		height = DefaultHeight
	}

	out := &Layout{
		GridSize:    gridSize,
		Height:      height,
		Areas:       make([]AreaShape, 0, len(data.Areas)),
		Connections: make([]Connector, 0, len(data.Connections)),
	}

	rects := make(map[string]Rect, len(data.Areas))
	for _, a := range data.Areas {
		r := AreaRect(a.GridX, a.GridY, a.GridWidth, a.GridHeight, gridSize, height)
		rects[a.ID] = r

		shape := AreaShape{
			ID: a.ID, Name: a.Name, Type: a.Type, Status: a.Status,
			Rect:    r,
			Devices: make([]DeviceShape, 0, len(a.Devices)),
		}
		for _, d := range a.Devices {
			shape.Devices = append(shape.Devices, DeviceShape{
				ID: d.ID, Name: d.Name, Type: d.Type, Status: d.Status,
				At: GridToPixel(d.GridX, d.GridY, gridSize, height),
			})
		}
		out.Areas = append(out.Areas, shape)
	}

	for _, c := range data.Connections {
		from, ok := rects[c.From]
		if !ok {
			continue
		}
		to, ok := rects[c.To]
		if !ok {
			continue
		}
		anchors := SmartAnchors(from, to)
		curve := CurveFor(anchors)
		out.Connections = append(out.Connections, Connector{
			From:      c.From,
			To:        c.To,
			Type:      c.Type,
			Component: c.Component,
			Anchors:   anchors,
			Path:      curve.Path(),
			Points:    curve.Points(DefaultCurvePoints),
		})
	}
	return out
}
