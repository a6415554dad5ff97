// Package selection tracks which node of a pipeline graph is selected.
//
// A [State] remembers the selected node by key and by its parent stage,
// so it stays valid across re-layouts of the same stages. It answers two
// questions for the renderer: whether a given node is the selected one,
// and whether the selected node belongs to a given top-level stage column.
package selection

import (
	"github.com/matzehuels/stagegraph/pkg/layout"
)

// StartClickName is reported when the start node is clicked.
const StartClickName = "start"

// State is the current selection. The zero value selects nothing.
type State struct {
	Key           string `json:"key,omitempty"`
	ParentStageID int    `json:"parent_stage_id,omitempty"`
	HasParent     bool   `json:"has_parent,omitempty"`
}

// Select returns a state selecting n.
func Select(n layout.Node) State {
	return State{Key: n.Key, ParentStageID: n.ParentStageID, HasParent: n.HasParent}
}

// None reports whether nothing is selected.
func (s State) None() bool { return s.Key == "" }

// IsNodeSelected reports whether n is the selected node.
func (s State) IsNodeSelected(n layout.Node) bool {
	return !s.None() && s.Key == n.Key
}

// IsStageFamilySelected reports whether the selected node sits in the
// column of the given top-level stage.
func (s State) IsStageFamilySelected(stageID int) bool {
	return !s.None() && s.HasParent && s.ParentStageID == stageID
}

// Resolve returns the selected node in m, if it is still present.
func (s State) Resolve(m *layout.Model) (layout.Node, bool) {
	if s.None() || m == nil {
		return layout.Node{}, false
	}
	return m.Node(s.Key)
}

// Click is the callback payload for a node click.
type Click struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// HandleClick computes the outcome of clicking n. It returns the click to
// report, whether to report it, and the new state. Clicking an add
// placeholder reports nothing and keeps the state.
func HandleClick(s State, n layout.Node) (Click, bool, State) {
	switch n.Kind {
	case layout.KindStage:
		return Click{Name: n.Name, ID: n.StageID}, true, Select(n)
	case layout.KindStart:
		return Click{Name: StartClickName, ID: layout.StartID}, true, Select(n)
	default:
		return Click{}, false, s
	}
}

// ForStage returns a state selecting the stage node of m for stageID. A
// top-level stage with children has no node of its own; its first child is
// selected instead. It is used to seed highlighting from an externally
// selected stage.
func ForStage(m *layout.Model, stageID int) (State, bool) {
	if m == nil {
		return State{}, false
	}
	if n, ok := m.Node(layout.StageKey(stageID)); ok && n.Kind == layout.KindStage {
		return Select(n), true
	}
	for _, n := range m.Nodes {
		if n.Kind == layout.KindStage && n.HasParent && n.ParentStageID == stageID {
			return Select(n), true
		}
	}
	return State{}, false
}
