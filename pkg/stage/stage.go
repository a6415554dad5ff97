// Package stage defines the pipeline stage tree consumed by the layout engine.
//
// A pipeline is an ordered list of top-level stages. A stage with children
// fans out into parallel branches; the parent stage itself is then only a
// column title and never drawn as a node.
//
// Stages are treated as read-only input: nothing in stagegraph mutates a
// Stage after it has been decoded. Identity is the integer [Stage.ID], which
// callers are expected to keep unique and non-negative. Negative ids are
// reserved for synthetic layout nodes.
//
// # File Formats
//
// [ReadFile] picks a decoder from the file extension:
//
//	.json          {"stages": [...]} or a bare array
//	.yaml, .yml    stages: [...] or a bare sequence
//	.toml          [[stages]] tables
//
// Every format uses the same field names:
//
//	{
//	  "stages": [
//	    {"id": 1, "name": "Build"},
//	    {"id": 2, "name": "Test", "children": [
//	      {"id": 3, "name": "Unit"},
//	      {"id": 4, "name": "Integration"}
//	    ]}
//	  ]
//	}
package stage

// Stage is a single pipeline stage.
type Stage struct {
	ID       int     `json:"id" yaml:"id" toml:"id"`
	Name     string  `json:"name" yaml:"name" toml:"name"`
	Children []Stage `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// HasChildren reports whether the stage fans out into parallel branches.
func (s Stage) HasChildren() bool { return len(s.Children) > 0 }

// NodeStages returns the stages drawn as nodes for this stage's column:
// its children when it has any, otherwise the stage itself.
func (s Stage) NodeStages() []Stage {
	if s.HasChildren() {
		return s.Children
	}
	return []Stage{s}
}

// Equal reports whether two stages have the same id, name and children,
// recursively.
func (s Stage) Equal(o Stage) bool {
	if s.ID != o.ID || s.Name != o.Name || len(s.Children) != len(o.Children) {
		return false
	}
	for i := range s.Children {
		if !s.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// EqualList reports whether two stage lists are element-wise [Stage.Equal].
// A nil list equals an empty one.
func EqualList(a, b []Stage) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Count returns the number of stages in the tree, parents and children
// included.
func Count(stages []Stage) int {
	n := 0
	for _, s := range stages {
		n += 1 + Count(s.Children)
	}
	return n
}

// Find returns the first stage with the given id, searching depth-first.
func Find(stages []Stage, id int) (Stage, bool) {
	for _, s := range stages {
		if s.ID == id {
			return s, true
		}
		if c, ok := Find(s.Children, id); ok {
			return c, true
		}
	}
	return Stage{}, false
}
