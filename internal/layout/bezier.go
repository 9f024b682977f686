// Package layout converts floor-plan grid coordinates into SVG geometry:
// area rectangles, edge anchors and cubic Bezier connectors.
package layout

import (
	"fmt"
	"math"
	"strconv"
)

// Defaults used when the caller gives no canvas size
const (
	DefaultGridSize   = 20.0
	DefaultHeight     = 600.0
	MaxControlOffset  = 80.0
	ControlOffsetRate = 0.4
)

// Point is a pixel position, y growing downwards
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a pixel rectangle anchored at its top-left corner
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of r
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Direction is the side of an area a connector leaves or enters from
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// GridToPixel maps grid units to pixels. Grid y grows upwards, so it is
// flipped against the canvas height.
func GridToPixel(gridX, gridY, gridSize, height float64) Point {
	return Point{X: gridX * gridSize, Y: height - gridY*gridSize}
}

// AreaRect returns the pixel rectangle of a grid box whose origin is its
// bottom-left corner
func AreaRect(gridX, gridY, gridW, gridH, gridSize, height float64) Rect {
	topLeft := GridToPixel(gridX, gridY+gridH, gridSize, height)
	return Rect{X: topLeft.X, Y: topLeft.Y, Width: gridW * gridSize, Height: gridH * gridSize}
}

// Anchors are the endpoints of a connector and the sides they attach to
type Anchors struct {
	From    Point     `json:"from"`
	To      Point     `json:"to"`
	FromDir Direction `json:"fromDirection"`
	ToDir   Direction `json:"toDirection"`
}

// SmartAnchors attaches a connector to the facing edges of two areas along
// the dominant axis between their centers. Horizontal wins ties only when
// strictly larger.
func SmartAnchors(from, to Rect) Anchors {
	fc, tc := from.Center(), to.Center()
	dx, dy := tc.X-fc.X, tc.Y-fc.Y

	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return Anchors{
				From: Point{X: from.X + from.Width, Y: fc.Y}, FromDir: Right,
				To: Point{X: to.X, Y: tc.Y}, ToDir: Left,
			}
		}
		return Anchors{
			From: Point{X: from.X, Y: fc.Y}, FromDir: Left,
			To: Point{X: to.X + to.Width, Y: tc.Y}, ToDir: Right,
		}
	}
	if dy > 0 {
		return Anchors{
			From: Point{X: fc.X, Y: from.Y + from.Height}, FromDir: Down,
			To: Point{X: tc.X, Y: to.Y}, ToDir: Up,
		}
	}
	return Anchors{
		From: Point{X: fc.X, Y: from.Y}, FromDir: Up,
		To: Point{X: tc.X, Y: to.Y + to.Height}, ToDir: Down,
	}
}

// Curve is a cubic Bezier segment
type Curve struct {
	Start, C1, C2, End Point
}

// ControlOffset is how far control points sit from their anchors
func ControlOffset(a, b Point) float64 {
	return math.Min(math.Hypot(b.X-a.X, b.Y-a.Y)*ControlOffsetRate, MaxControlOffset)
}

func offset(p Point, dir Direction, d float64) Point {
	switch dir {
	case Right:
		return Point{X: p.X + d, Y: p.Y}
	case Left:
		return Point{X: p.X - d, Y: p.Y}
	case Up:
		return Point{X: p.X, Y: p.Y - d}
	case Down:
		return Point{X: p.X, Y: p.Y + d}
	}
	return p
}

// CurveFor pushes the control points out of each anchor along its side
func CurveFor(a Anchors) Curve {
	d := ControlOffset(a.From, a.To)
	return Curve{
		Start: a.From,
		C1:    offset(a.From, a.FromDir, d),
		C2:    offset(a.To, a.ToDir, d),
		End:   a.To,
	}
}

// At evaluates the curve at t in [0,1]
func (c Curve) At(t float64) Point {
	u := 1 - t
	b0, b1, b2, b3 := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: b0*c.Start.X + b1*c.C1.X + b2*c.C2.X + b3*c.End.X,
		Y: b0*c.Start.Y + b1*c.C1.Y + b2*c.C2.Y + b3*c.End.Y,
	}
}

// Points samples n evenly spaced parameters including both ends.
// n below 2 yields just the endpoints.
func (c Curve) Points(n int) []Point {
	if n < 2 {
		n = 2
	}
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = c.At(float64(i) / float64(n-1))
	}
	return pts
}

// Path renders the curve as an SVG path: "M x y C c1x c1y, c2x c2y, x y"
func (c Curve) Path() string {
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		num(c.Start.X), num(c.Start.Y),
		num(c.C1.X), num(c.C1.Y),
		num(c.C2.X), num(c.C2.Y),
		num(c.End.X), num(c.End.Y))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
