package layout

import (
	"sort"
	"strconv"
)

// NodeKind discriminates the variants of [Node].
type NodeKind string

const (
	KindStage NodeKind = "stage"
	KindStart NodeKind = "start"
	KindAdd   NodeKind = "add"
)

// StartID is the node id of the start placeholder. Add placeholders count
// down from StartID-1.
const StartID = -1

// Node is a positioned node. Stage nodes carry the originating stage in
// StageID and Name; placeholders carry a synthetic negative NodeID.
type Node struct {
	Key    string   `json:"key"`
	Kind   NodeKind `json:"kind"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	NodeID int      `json:"node_id"`
	Name   string   `json:"name"`

	// StageID is set for KindStage only.
	StageID int `json:"stage_id,omitempty"`

	// ParentStageID is the top-level stage whose column holds the node.
	ParentStageID int  `json:"parent_stage_id,omitempty"`
	HasParent     bool `json:"has_parent,omitempty"`
}

// IsPlaceholder reports whether the node is synthetic (start or add).
func (n Node) IsPlaceholder() bool { return n.Kind != KindStage }

// StageKey returns the key of the stage node for a stage id.
func StageKey(id int) string { return "n_" + strconv.Itoa(id) }

// StartKey is the key of the start placeholder.
const StartKey = "s_-1"

// AddKey returns the key of the add placeholder with the given node id.
func AddKey(nodeID int) string { return "a_" + strconv.Itoa(nodeID) }

// Connection joins two nodes by key, left to right.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Key identifies the connection among its siblings.
func (c Connection) Key() string { return c.From + "_con_" + c.To }

// Label is a text annotation anchored at a node position.
type Label struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Text    string  `json:"text"`
	NodeKey string  `json:"node_key"`

	// StageID is the labelled stage, if any. The start label has none.
	StageID  int  `json:"stage_id,omitempty"`
	HasStage bool `json:"has_stage,omitempty"`
}

// Key identifies the label among labels of the same size class.
func (l Label) Key() string {
	if l.HasStage {
		return strconv.Itoa(l.StageID)
	}
	return l.Text
}

// Model is the output of [Layout]: everything needed to draw the pipeline.
type Model struct {
	Constants      Constants    `json:"constants"`
	Nodes          []Node       `json:"nodes"`
	Connections    []Connection `json:"connections"`
	BigLabels      []Label      `json:"big_labels"`
	SmallLabels    []Label      `json:"small_labels"`
	MeasuredWidth  float64      `json:"measured_width"`
	MeasuredHeight float64      `json:"measured_height"`
}

// Node returns the node with the given key.
func (m *Model) Node(key string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIndex maps node keys to nodes.
func (m *Model) NodeIndex() map[string]Node {
	idx := make(map[string]Node, len(m.Nodes))
	for _, n := range m.Nodes {
		idx[n.Key] = n
	}
	return idx
}

// Columns groups nodes by x-coordinate, left to right, each column sorted
// top to bottom.
func (m *Model) Columns() [][]Node {
	var xs []float64
	byX := make(map[float64][]Node)
	for _, n := range m.Nodes {
		if _, ok := byX[n.X]; !ok {
			xs = append(xs, n.X)
		}
		byX[n.X] = append(byX[n.X], n)
	}
	sort.Float64s(xs)

	cols := make([][]Node, 0, len(xs))
	for _, x := range xs {
		col := byX[x]
		sort.SliceStable(col, func(i, j int) bool { return col[i].Y < col[j].Y })
		cols = append(cols, col)
	}
	return cols
}

// Count returns the number of nodes of the given kind.
func (m *Model) Count(kind NodeKind) int {
	n := 0
	for _, node := range m.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}
