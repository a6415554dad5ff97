// Package nodelink exports a pipeline layout as a Graphviz node-link diagram.
//
// # Overview
//
// The diagram keeps the connection graph of a [layout.Model] but lets
// Graphviz place the nodes. It is useful for pasting into documentation
// or for checking the fan rule visually on large pipelines.
//
// # Usage
//
//	dot := nodelink.ToDOT(model, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # DOT Format
//
// The generated DOT uses left-to-right layout (rankdir=LR). Each top-level
// stage becomes a cluster labelled with the stage name and holding its
// column nodes and add placeholder. The start node is a filled point, add
// placeholders are dashed "+" circles, and connectors touching a
// placeholder are dashed, as in the SVG output.
//
// # Options
//
//   - Detailed: node labels include the node key and layout coordinates
//   - NoClusters: emit a flat graph without stage clusters
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
