package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/geometry"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the node key and layout coordinates in labels.
	// When false, only the stage name is shown.
	Detailed bool

	// NoClusters disables grouping nodes by top-level stage.
	NoClusters bool
}

// ToDOT converts a layout model to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(m *layout.Model, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, fontsize=12, fixedsize=false];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	clusters, order := groupByStage(m)
	if opts.NoClusters {
		clusters, order = nil, nil
	}

	inCluster := make(map[string]bool)
	for _, id := range order {
		fmt.Fprintf(&buf, "  subgraph cluster_%s {\n", clusterName(id))
		fmt.Fprintf(&buf, "    label=%q;\n", bigLabelText(m, id))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, n := range clusters[id] {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.Key, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
			inCluster[n.Key] = true
		}
		buf.WriteString("  }\n")
	}

	for _, n := range m.Nodes {
		if inCluster[n.Key] {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	idx := m.NodeIndex()
	for _, c := range m.Connections {
		attr := ""
		if idx[c.From].IsPlaceholder() || idx[c.To].IsPlaceholder() {
			attr = " [style=dashed]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", c.From, c.To, attr)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// groupByStage returns the nodes of every top-level stage column, keyed by
// stage id, and the ids in column order.
func groupByStage(m *layout.Model) (map[int][]layout.Node, []int) {
	clusters := make(map[int][]layout.Node)
	var order []int
	for _, n := range m.Nodes {
		if !n.HasParent {
			continue
		}
		if _, ok := clusters[n.ParentStageID]; !ok {
			order = append(order, n.ParentStageID)
		}
		clusters[n.ParentStageID] = append(clusters[n.ParentStageID], n)
	}
	return clusters, order
}

func clusterName(stageID int) string {
	if stageID < 0 {
		return "m" + strconv.Itoa(-stageID)
	}
	return strconv.Itoa(stageID)
}

func bigLabelText(m *layout.Model, stageID int) string {
	for _, l := range m.BigLabels {
		if l.HasStage && l.StageID == stageID {
			return l.Text
		}
	}
	return ""
}

func fmtLabel(n layout.Node, detailed bool) string {
	var label string
	switch n.Kind {
	case layout.KindStart:
		label = "Start"
	case layout.KindAdd:
		label = "+"
	default:
		label = n.Name
	}
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\n%s\n(%s, %s)", label, n.Key, geometry.FormatNumber(n.X), geometry.FormatNumber(n.Y))
}

func fmtAttrs(n layout.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch n.Kind {
	case layout.KindStart:
		if !detailed {
			attrs = append(attrs, "shape=point", "width=0.15", `xlabel="Start"`)
		}
	case layout.KindAdd:
		attrs = append(attrs, "style=dashed", "fontcolor=grey40", "color=grey40")
	default:
		attrs = append(attrs, "shape=box", "style=rounded")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
