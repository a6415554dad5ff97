package layout

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/stage"
)

// Layout computes node positions, connections and labels for stages.
//
// Node order is: the start node, then for each stage its add placeholder
// followed by its column nodes, then the trailing add placeholder.
func Layout(stages []stage.Stage, c Constants) *Model {
	b := &builder{c: c, x: c.NodeSpacingH / 2, nextID: StartID}
	return b.run(stages)
}

// builder holds the cursor for one layout pass.
type builder struct {
	c      Constants
	x      float64
	nextID int
	m      Model
}

func (b *builder) run(stages []stage.Stage) *Model {
	b.m = Model{
		Constants:   b.c,
		Nodes:       []Node{},
		Connections: []Connection{},
		BigLabels:   []Label{},
		SmallLabels: []Label{},
	}

	start := Node{
		Key:    StartKey,
		Kind:   KindStart,
		X:      b.x,
		Y:      TopMargin,
		NodeID: StartID,
		Name:   "Start",
	}
	b.m.Nodes = append(b.m.Nodes, start)
	b.m.SmallLabels = append(b.m.SmallLabels, Label{X: start.X, Y: start.Y, Text: "Start", NodeKey: start.Key})
	b.x += b.c.NodeSpacingH

	previous := []Node{start}
	mostColumnNodes := 1

	for _, top := range stages {
		column, add := b.column(top)
		b.connect(previous, append(column[:len(column):len(column)], add))

		b.m.Nodes = append(b.m.Nodes, add)
		b.m.Nodes = append(b.m.Nodes, column...)

		b.x += b.c.NodeSpacingH
		mostColumnNodes = max(mostColumnNodes, len(column)+1)
		previous = column
	}

	trailing := b.addNode(TopMargin)
	b.m.Nodes = append(b.m.Nodes, trailing)
	b.x += b.c.NodeSpacingH
	b.connect(previous[:1], []Node{trailing})

	b.m.MeasuredWidth = b.x - math.Floor(b.c.NodeSpacingH/2)
	b.m.MeasuredHeight = TopMargin + float64(mostColumnNodes)*b.c.NodeSpacingV
	return &b.m
}

// column lays out one top-level stage at the current x and returns its
// nodes and its add placeholder. Labels are recorded as a side effect.
func (b *builder) column(top stage.Stage) ([]Node, Node) {
	y := TopMargin
	nodeStages := top.NodeStages()
	column := make([]Node, 0, len(nodeStages))

	for _, s := range nodeStages {
		n := Node{
			Key:           StageKey(s.ID),
			Kind:          KindStage,
			X:             b.x,
			Y:             y,
			NodeID:        s.ID,
			Name:          s.Name,
			StageID:       s.ID,
			ParentStageID: top.ID,
			HasParent:     true,
		}
		column = append(column, n)

		// The parent already has a big label.
		if top.HasChildren() {
			b.m.SmallLabels = append(b.m.SmallLabels, Label{
				X: n.X, Y: n.Y, Text: s.Name, NodeKey: n.Key,
				StageID: s.ID, HasStage: true,
			})
		}
		y += b.c.NodeSpacingV
	}

	b.m.BigLabels = append(b.m.BigLabels, Label{
		X: b.x, Y: TopMargin, Text: top.Name, NodeKey: column[0].Key,
		StageID: top.ID, HasStage: true,
	})

	add := b.addNode(y)
	add.ParentStageID = top.ID
	add.HasParent = true
	return column, add
}

func (b *builder) addNode(y float64) Node {
	b.nextID--
	return Node{
		Key:    AddKey(b.nextID),
		Kind:   KindAdd,
		X:      b.x,
		Y:      y,
		NodeID: b.nextID,
		Name:   "Add",
	}
}

func (b *builder) connect(from, to []Node) {
	b.m.Connections = append(b.m.Connections, Connect(from, to)...)
}

// Connect applies the fan rule: every node in from connects to to[0], then
// from[0] connects to each of to[1:]. An empty to yields nothing; an empty
// from is a programming error and panics.
func Connect(from, to []Node) []Connection {
	if len(to) == 0 {
		return nil
	}
	if len(from) == 0 {
		panic("layout: connect from an empty column")
	}

	conns := make([]Connection, 0, len(from)+len(to)-1)
	for _, f := range from {
		conns = append(conns, Connection{From: f.Key, To: to[0].Key})
	}
	for _, t := range to[1:] {
		conns = append(conns, Connection{From: from[0].Key, To: t.Key})
	}
	return conns
}
