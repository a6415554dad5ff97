// Package layout assigns coordinates to the nodes of a stage pipeline.
//
// # Overview
//
// A pipeline is a sequence of top-level stages. Each stage occupies one
// column. A stage without children is drawn as a single node; a stage with
// children is drawn as one node per child, stacked vertically, and the
// parent itself gets no node.
//
//	 Start    Build      Test
//	   ●────────○────┬────○ Unit ─────┬──── +
//	            +    ├────○ Integration
//	                 └────+
//
// Besides the stage nodes the layout contains synthetic placeholder nodes:
//
//   - one start node, always first, in its own column
//   - one add node below each top-level stage column
//   - one trailing add node in its own final column
//
// # Usage
//
//	model := layout.Layout(stages, layout.Defaults())
//	for _, n := range model.Nodes {
//	    fmt.Println(n.Key, n.X, n.Y)
//	}
//
// Constants can be partially overridden:
//
//	spacing := 160.0
//	c := layout.Defaults().Merge(layout.Overrides{NodeSpacingH: &spacing})
//
// # Connections
//
// Consecutive columns are joined with the fan rule: every node of the
// previous column connects to the first node of the next column, and the
// first node of the previous column also connects to every other node of
// the next column. The trailing add node is reached only from the first
// node of the last stage column.
//
// # Serialization
//
// [WriteModel] and [ReadModel] store a computed [Model] as JSON so it can be
// rendered later without the stage file.
//
// [Layout] is pure and never fails. Node keys are derived from stage ids,
// so laying out the same stages twice yields identical models.
package layout
