// Package pkg provides the core libraries for Stagegraph pipeline graphs.
//
// # Overview
//
// Stagegraph turns an ordered list of pipeline stages into a left-to-right
// graph. A stage with children fans out into parallel branches drawn in one
// column; between columns, and before the first and after the last, sit "add"
// placeholders. Clicking a stage node selects it. The pkg directory is
// organized into three areas:
//
//  1. Domain: [stage], [layout], [geometry], [selection]
//  2. Drawing: [render], [render/sink], [render/nodelink]
//  3. Orchestration and infrastructure: [view], [runner], [cache],
//     [session], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	stages.yaml / .json / .toml
//	         ↓
//	    [stage] package (decode the stage tree)
//	         ↓
//	    [layout] package (node positions, connections, labels)
//	         ↓
//	    [render] package (project onto a scene, with the selection)
//	         ↓
//	    SVG/PDF/PNG/JSON output, or DOT via [render/nodelink]
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/stagegraph/pkg/layout"
//	    "github.com/matzehuels/stagegraph/pkg/render"
//	    "github.com/matzehuels/stagegraph/pkg/render/sink"
//	    "github.com/matzehuels/stagegraph/pkg/selection"
//	    "github.com/matzehuels/stagegraph/pkg/stage"
//	)
//
//	stages, _ := stage.ReadFile("pipeline.yaml")
//	m := layout.Layout(stages, layout.Defaults())
//
//	n, _ := m.Node("n_3")
//	svg := sink.RenderSVG(render.Project(m, selection.Select(n)))
//
// Interactive hosts keep a [view.View], which owns the stages, the layout
// and the selection, and only relays out when the stages actually change:
//
//	v := view.New(stages, view.WithListener(func(c selection.Click) {
//	    fmt.Println("clicked", c.Name, c.ID)
//	}))
//	v.Click(ctx, "n_3")
//
// # Main Packages
//
// [stage] - The stage tree and its file formats.
//
// [layout] - The layout engine. Columns are placed NodeSpacingH apart; the
// nodes of a column are stacked NodeSpacingV apart. Every node of one
// column connects to every node of the next. [layout.Model] is the
// serializable result.
//
// [geometry] - Connector paths: straight lines between nodes on one row and
// two-arc S-curves between rows.
//
// [selection] - Selection state and the click rule: stage and start nodes
// become selected and are reported, add placeholders do nothing.
//
// [render] - Projects a layout and a selection onto a drawable scene, and
// converts SVG to PDF/PNG with rsvg-convert.
//
// [render/sink] - SVG, PNG, PDF and JSON writers for a scene.
//
// [render/nodelink] - Graphviz DOT of the connection graph, rendered with
// go-graphviz.
//
// [runner] - Layout and render with caching, shared by the CLI and the
// HTTP server.
//
// [cache] - Cache and key derivation with file, Redis and null backends.
//
// [session] - Per-browser sessions for the HTTP server, with memory, file
// and Redis stores.
//
// [observability] - Hook interfaces for layout, render, cache, selection
// and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./...                    # All tests
//	go test ./pkg/layout/...         # Specific package
//	go test -run Example ./pkg/...   # Examples only
//
// [stage]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/stage
// [layout]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/layout
// [layout.Model]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/layout#Model
// [geometry]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/geometry
// [selection]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/selection
// [render]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/render/nodelink
// [view]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/view
// [view.View]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/view#View
// [runner]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/stagegraph/pkg/buildinfo
package pkg
