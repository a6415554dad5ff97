// Package sink provides output format renderers for projected scenes.
//
// # Overview
//
// A "sink" transforms a [render.Scene] into a final output format:
//
//   - SVG: standalone vector document with embedded CSS
//   - JSON: the scene's primitives for external front ends
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster image output (requires rsvg-convert)
//
// # SVG Output
//
// [RenderSVG] draws the highlight ring, connectors, nodes and labels in
// that order. Labels become centred <text> elements: big labels sit on
// their bottom edge, small labels hang from their top edge.
//
//	svg := sink.RenderSVG(scene)
//
// With [WithClickEndpoint] the document posts node clicks back to an HTTP
// endpoint, which is how the serve command makes the graph interactive.
//
// # JSON Output
//
// [RenderJSON] exports the scene together with the selected node key and
// the layout constants used, so a browser can draw the same picture with
// its own toolkit.
package sink
