// Package render turns a computed layout into drawable primitives.
//
// # Overview
//
// [Project] maps a [layout.Model] and a [selection.State] to a [Scene]:
// circles for nodes, lines or S-curves for connectors, and positioned text
// boxes for labels. Projection makes no layout decisions; every coordinate
// comes from the model and its constants. It is cheap and is run again on
// every selection change.
//
//	m := layout.Layout(stages, layout.Defaults())
//	scene := render.Project(m, sel)
//
// A scene is drawn in this order: selection highlight, connectors, nodes,
// big labels, small labels.
//
// # Output Formats
//
// The [sink] subpackage writes scenes as SVG documents or JSON. The
// [ToPDF] and [ToPNG] functions convert SVG to other formats using the
// external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(scene)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// # Node-Link Export
//
// The [nodelink] subpackage exports the connection graph as Graphviz DOT,
// ignoring the computed coordinates.
//
// [sink]: github.com/matzehuels/stagegraph/pkg/render/sink
// [nodelink]: github.com/matzehuels/stagegraph/pkg/render/nodelink
package render
