// Package geometry builds connector paths between laid-out nodes.
//
// A connector joins the right edge of one node to the left edge of another.
// When both ends sit on the same row the connector is a straight horizontal
// segment. Otherwise it is an S-curve: a horizontal run, a quarter turn, a
// vertical run, a second quarter turn and a final horizontal run.
//
//	left ───╮
//	        │
//	        ╰─── right
//
// The turns are cubic Bézier approximations of quarter circles with the
// configured curve radius. The midpoint of the vertical run is shifted by
// one radius in the direction of travel and rounded half-up to a whole unit,
// so that curves starting from the same node share their first turn.
//
// When the vertical distance is smaller than twice the radius the vertical
// run has negative length and the turns overlap. The path is still
// continuous and this case is not clamped.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a 2-D coordinate in layout units. Y grows downwards.
type Point struct {
	X, Y float64
}

// Inset moves connector endpoints from node centers to the visible node
// edges. Each end is moved inwards by the node radius minus half the node
// stroke width, so the connector touches the outside of the stroke.
func Inset(left, right Point, nodeRadius, nodeStrokeWidth float64) (Point, Point) {
	d := nodeRadius - nodeStrokeWidth/2
	return Point{X: left.X + d, Y: left.Y}, Point{X: right.X - d, Y: right.Y}
}

// SegmentKind distinguishes the pieces of a connector path.
type SegmentKind int

const (
	// SegmentLine is a straight relative move ("l dx dy").
	SegmentLine SegmentKind = iota
	// SegmentCurve is a relative cubic Bézier ("c c1x c1y c2x c2y dx dy").
	SegmentCurve
)

// Segment is one relative path command. For lines only D is set; curves
// also carry their two control points, relative to the segment start.
type Segment struct {
	Kind   SegmentKind
	C1, C2 Point
	D      Point
}

// Path is a connector from Start to End. Straight connectors have no
// segments beyond a single line.
type Path struct {
	Start    Point
	End      Point
	Straight bool
	Segments []Segment
}

// Connect builds the connector between two already inset endpoints.
func Connect(left, right Point, curveRadius float64) Path {
	if left.Y == right.Y {
		return Path{
			Start:    left,
			End:      right,
			Straight: true,
			Segments: []Segment{{Kind: SegmentLine, D: Point{X: right.X - left.X}}},
		}
	}

	r := curveRadius
	dir := sign(right.Y - left.Y) // 1 turns down, -1 turns up
	midX := roundHalfUp((left.X+right.X)/2 + r*dir)
	w1 := midX - r - left.X
	w2 := right.X - r - midX
	v := right.Y - left.Y - 2*r*dir
	cv := dir * r

	return Path{
		Start: left,
		End:   right,
		Segments: []Segment{
			{Kind: SegmentLine, D: Point{X: w1}},
			{Kind: SegmentCurve, C1: Point{X: r}, C2: Point{X: r, Y: cv}, D: Point{X: r, Y: cv}},
			{Kind: SegmentLine, D: Point{Y: v}},
			{Kind: SegmentCurve, C1: Point{Y: cv}, C2: Point{X: r, Y: cv}, D: Point{X: r, Y: cv}},
			{Kind: SegmentLine, D: Point{X: w2}},
		},
	}
}

// Turns returns the number of curved segments in the path.
func (p Path) Turns() int {
	n := 0
	for _, s := range p.Segments {
		if s.Kind == SegmentCurve {
			n++
		}
	}
	return n
}

// HorizontalRun returns the summed x-distance covered by straight
// horizontal segments.
func (p Path) HorizontalRun() float64 {
	var total float64
	for _, s := range p.Segments {
		if s.Kind == SegmentLine && s.D.Y == 0 {
			total += s.D.X
		}
	}
	return total
}

// Last returns the absolute end point reached by walking all segments.
// For well-formed paths it equals End.
func (p Path) Last() Point {
	at := p.Start
	for _, s := range p.Segments {
		at.X += s.D.X
		at.Y += s.D.Y
	}
	return at
}

// Data returns the SVG path data for the connector, using relative
// commands after the initial move.
func (p Path) Data() string {
	var b strings.Builder
	fmt.Fprintf(&b, "M %s %s", FormatNumber(p.Start.X), FormatNumber(p.Start.Y))
	for _, s := range p.Segments {
		switch s.Kind {
		case SegmentLine:
			fmt.Fprintf(&b, " l %s %s", FormatNumber(s.D.X), FormatNumber(s.D.Y))
		case SegmentCurve:
			fmt.Fprintf(&b, " c %s %s %s %s %s %s",
				FormatNumber(s.C1.X), FormatNumber(s.C1.Y), FormatNumber(s.C2.X), FormatNumber(s.C2.Y), FormatNumber(s.D.X), FormatNumber(s.D.Y))
		}
	}
	return b.String()
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// FormatNumber formats a coordinate with the shortest exact representation
// and without a negative zero.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
