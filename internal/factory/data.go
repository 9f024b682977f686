package factory

import (
	"context"

	"github.com/smartfactory/smartfactory/internal/types"
)

// Data is the whole floor in the shape the dashboard draws from
type Data struct {
	Areas       []AreaView `json:"areas"`
	Connections []Link     `json:"connections"`
}

// AreaView is an area with its devices, without bookkeeping fields
type AreaView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	Status     string       `json:"status"`
	GridX      float64      `json:"gridX"`
	GridY      float64      `json:"gridY"`
	GridWidth  float64      `json:"gridWidth"`
	GridHeight float64      `json:"gridHeight"`
	Devices    []DeviceView `json:"devices"`
}

type DeviceView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	GridX       float64 `json:"gridX"`
	GridY       float64 `json:"gridY"`
	Efficiency  int     `json:"efficiency"`
	Temperature float64 `json:"temperature"`
}

// Link is a connection between two areas with its inline component
type Link struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Type      string    `json:"type"`
	Component Component `json:"component"`
}

type Component struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Name   string `json:"name"`
	ID     string `json:"id"`
}

// Data loads areas, devices and connections in one response
func (s *Service) Data(ctx context.Context) (*Data, error) {
	areas, err := s.areas.List(ctx)
	if err != nil {
		return nil, err
	}
	conns, err := s.connections.List(ctx)
	if err != nil {
		return nil, err
	}

	out := &Data{
		Areas:       make([]AreaView, 0, len(areas)),
		Connections: make([]Link, 0, len(conns)),
	}
	for _, a := range areas {
		out.Areas = append(out.Areas, areaView(a))
	}
	for _, c := range conns {
		out.Connections = append(out.Connections, link(c))
	}
	return out, nil
}

func areaView(a types.Area) AreaView {
	v := AreaView{
		ID:         a.ID,
		Name:       a.Name,
		Type:       a.Type,
		Status:     a.Status,
		GridX:      a.GridX,
		GridY:      a.GridY,
		GridWidth:  a.GridWidth,
		GridHeight: a.GridHeight,
		Devices:    make([]DeviceView, 0, len(a.Devices)),
	}
	for _, d := range a.Devices {
		v.Devices = append(v.Devices, DeviceView{
			ID:          d.ID,
			Name:        d.Name,
			Type:        d.Type,
			Status:      d.Status,
			GridX:       d.GridX,
			GridY:       d.GridY,
			Efficiency:  d.Efficiency,
			Temperature: d.Temperature,
		})
	}
	return v
}

func link(c types.Connection) Link {
	return Link{
		From: c.FromAreaID,
		To:   c.ToAreaID,
		Type: c.Type,
		Component: Component{
			Type:   c.ComponentType,
			Status: c.ComponentStatus,
			Name:   c.ComponentName,
			ID:     c.ComponentID,
		},
	}
}
