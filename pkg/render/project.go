package render

import (
	"fmt"
	"math"

	"github.com/matzehuels/stagegraph/pkg/geometry"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/selection"
)

// Project draws m with the given selection. It never modifies m.
func Project(m *layout.Model, sel selection.State) *Scene {
	c := m.Constants
	idx := m.NodeIndex()

	s := &Scene{
		Width:       m.MeasuredWidth,
		Height:      m.MeasuredHeight,
		Connectors:  make([]Connector, 0, len(m.Connections)),
		Nodes:       make([]Glyph, 0, len(m.Nodes)),
		BigLabels:   make([]TextBox, 0, len(m.BigLabels)),
		SmallLabels: make([]TextBox, 0, len(m.SmallLabels)),
	}

	s.Highlight = highlight(m, sel)

	for _, conn := range m.Connections {
		from, okF := idx[conn.From]
		to, okT := idx[conn.To]
		if !okF || !okT {
			continue
		}
		s.Connectors = append(s.Connectors, connector(c, from, to))
	}
	for _, n := range m.Nodes {
		s.Nodes = append(s.Nodes, glyph(c, n, sel))
	}
	for _, l := range m.BigLabels {
		s.BigLabels = append(s.BigLabels, bigLabel(c, m.MeasuredHeight, l, sel))
	}
	for _, l := range m.SmallLabels {
		s.SmallLabels = append(s.SmallLabels, smallLabel(c, l, sel))
	}
	return s
}

func highlight(m *layout.Model, sel selection.State) *Highlight {
	for _, n := range m.Nodes {
		if sel.IsNodeSelected(n) {
			c := m.Constants
			return &Highlight{
				NodeKey:     n.Key,
				X:           n.X,
				Y:           n.Y,
				Radius:      c.NodeRadius + 0.49*c.ConnectorStrokeWidth,
				StrokeWidth: c.ConnectorStrokeWidth * 1.1,
			}
		}
	}
	return nil
}

func connector(c layout.Constants, from, to layout.Node) Connector {
	left, right := geometry.Inset(
		geometry.Point{X: from.X, Y: from.Y},
		geometry.Point{X: to.X, Y: to.Y},
		c.NodeRadius, layout.NodeStrokeWidth,
	)
	conn := layout.Connection{From: from.Key, To: to.Key}
	out := Connector{
		Key:         conn.Key(),
		From:        from.Key,
		To:          to.Key,
		Class:       ClassConnector,
		StrokeWidth: c.ConnectorStrokeWidth,
		X1:          left.X,
		Y1:          left.Y,
		X2:          right.X,
		Y2:          right.Y,
	}
	if from.IsPlaceholder() || to.IsPlaceholder() {
		out.DashArray = PlaceholderDashArray
	}

	p := geometry.Connect(left, right, c.CurveRadius)
	out.Straight = p.Straight
	if !p.Straight {
		out.Path = p.Data()
	}
	return out
}

func glyph(c layout.Constants, n layout.Node, sel selection.State) Glyph {
	g := Glyph{
		Key:       n.Key,
		Kind:      n.Kind,
		Name:      n.Name,
		X:         n.X,
		Y:         n.Y,
		Class:     ClassNode,
		Selected:  sel.IsNodeSelected(n),
		HitRadius: c.NodeRadius + 2*c.ConnectorStrokeWidth,
	}
	if g.Selected {
		g.Class = ClassNodeSelected
	}

	switch n.Kind {
	case layout.KindStart:
		g.Circle = Circle{R: c.NodeRadius * 0.6, Filled: true}
	case layout.KindAdd:
		g.Circle = Circle{R: c.NodeRadius, StrokeWidth: layout.NodeStrokeWidth}
		g.PlusArm = c.NodeRadius / 2
	default:
		g.Circle = Circle{R: c.NodeRadius, StrokeWidth: layout.NodeStrokeWidth}
	}
	return g
}

func bigLabel(c layout.Constants, height float64, l layout.Label, sel selection.State) TextBox {
	width := c.NodeSpacingH
	offsetH := math.Floor(width * -0.5)

	selected := sel.Key == l.NodeKey && !sel.None()
	if l.HasStage && sel.IsStageFamilySelected(l.StageID) {
		selected = true
	}

	bottom := height - l.Y
	return TextBox{
		Key:      l.Key() + "-big",
		Text:     l.Text,
		NodeKey:  l.NodeKey,
		Class:    labelClass(ClassBigLabel, selected),
		Selected: selected,
		X:        l.X,
		Left:     l.X + offsetH,
		Width:    width,
		Anchor:   AnchorBottom,
		Edge:     l.Y - c.LabelOffsetV,
		Style: fmt.Sprintf("position:absolute;width:%spx;text-align:center;margin-left:%spx;margin-bottom:%spx;bottom:%spx;left:%spx",
			num(width), num(offsetH), num(c.LabelOffsetV), num(bottom), num(l.X)),
	}
}

func smallLabel(c layout.Constants, l layout.Label, sel selection.State) TextBox {
	width := c.NodeSpacingH - 2*c.CurveRadius
	offsetH := math.Floor(width * -0.5)
	selected := sel.Key == l.NodeKey && !sel.None()

	return TextBox{
		Key:      l.Key() + "-small",
		Text:     l.Text,
		NodeKey:  l.NodeKey,
		Class:    labelClass(ClassSmallLabel, selected),
		Selected: selected,
		X:        l.X,
		Left:     l.X + offsetH,
		Width:    width,
		Anchor:   AnchorTop,
		Edge:     l.Y + c.SmallLabelOffsetV,
		Style: fmt.Sprintf("position:absolute;width:%spx;text-align:center;margin-left:%spx;margin-top:%spx;top:%spx;left:%spx",
			num(width), num(offsetH), num(c.SmallLabelOffsetV), num(l.Y), num(l.X)),
	}
}

func labelClass(base string, selected bool) string {
	if selected {
		return base + " " + ClassLabelSelected
	}
	return base
}

func num(v float64) string { return geometry.FormatNumber(v) }
