package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/stagegraph/pkg/geometry"
	"github.com/matzehuels/stagegraph/pkg/render"
)

const defaultCSS = `
    .pipeline-connector { stroke: #949393; fill: none; }
    .pipeline-node circle.glyph { stroke: #949393; fill: none; }
    .pipeline-node circle.glyph.filled, .pipeline-node-selected circle.glyph.filled { fill: #4a4a4a; stroke: none; }
    .pipeline-node-selected circle.glyph { stroke: #4a90e2; fill: none; }
    .pipeline-node .plus, .pipeline-node-selected .plus { stroke: #949393; stroke-width: 2; }
    .pipeline-node-hittarget { fill: #000; fill-opacity: 0; stroke: none; cursor: pointer; }
    .pipeline-selection-highlight circle { fill: none; stroke: #4a90e2; }
    .pipeline-big-label, .pipeline-small-label { font-family: sans-serif; fill: #4a4a4a; }
    .pipeline-big-label { font-size: 15px; }
    .pipeline-small-label { font-size: 12px; }
    .selected { font-weight: bold; fill: #4a90e2; }`

const clickJS = `
    document.querySelectorAll('.pipeline-node-hittarget').forEach(el => {
      el.addEventListener('click', () => {
        const key = el.parentNode.dataset.key;
        fetch('%s' + encodeURIComponent(key), {method: 'POST', credentials: 'same-origin'})
          .then(() => window.location.reload());
      });
    });`

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	css      bool
	clickURL string
}

// WithoutCSS omits the embedded default stylesheet, leaving styling to the
// host page.
func WithoutCSS() SVGOption { return func(r *svgRenderer) { r.css = false } }

// WithClickEndpoint embeds a script that POSTs clicked node keys to
// prefix+key and reloads the document afterwards.
func WithClickEndpoint(prefix string) SVGOption {
	return func(r *svgRenderer) { r.clickURL = prefix }
}

// RenderSVG draws a scene as a standalone SVG document.
func RenderSVG(s *render.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{css: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(s.Width), num(s.Height), num(s.Width), num(s.Height))
	if r.css {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", defaultCSS)
	}

	if h := s.Highlight; h != nil {
		fmt.Fprintf(&buf, `  <g class="%s" transform="translate(%s %s)"><circle r="%s" stroke-width="%s"/></g>`+"\n",
			render.ClassHighlight, num(h.X), num(h.Y), num(h.Radius), num(h.StrokeWidth))
	}
	for _, c := range s.Connectors {
		renderConnector(&buf, c)
	}
	for _, g := range s.Nodes {
		renderGlyph(&buf, g)
	}
	for _, l := range s.BigLabels {
		renderLabel(&buf, l, "auto")
	}
	for _, l := range s.SmallLabels {
		renderLabel(&buf, l, "hanging")
	}

	if r.clickURL != "" {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", fmt.Sprintf(clickJS, r.clickURL))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderConnector(buf *bytes.Buffer, c render.Connector) {
	dash := ""
	if c.Dashed() {
		dash = fmt.Sprintf(` stroke-dasharray="%s"`, c.DashArray)
	}
	if c.Straight {
		fmt.Fprintf(buf, `  <line id="%s" class="%s" stroke-width="%s"%s x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n",
			escapeXML(c.Key), c.Class, num(c.StrokeWidth), dash, num(c.X1), num(c.Y1), num(c.X2), num(c.Y2))
		return
	}
	fmt.Fprintf(buf, `  <path id="%s" class="%s" stroke-width="%s"%s d="%s" fill="none"/>`+"\n",
		escapeXML(c.Key), c.Class, num(c.StrokeWidth), dash, c.Path)
}

func renderGlyph(buf *bytes.Buffer, g render.Glyph) {
	fmt.Fprintf(buf, `  <g id="node-%s" class="%s" transform="%s" data-key="%s">`+"\n",
		escapeXML(g.Key), g.Class, g.Transform(), escapeXML(g.Key))

	if g.Circle.Filled {
		fmt.Fprintf(buf, `    <circle class="glyph filled" r="%s"/>`+"\n", num(g.Circle.R))
	} else {
		fmt.Fprintf(buf, `    <circle class="glyph" r="%s" stroke-width="%s"/>`+"\n", num(g.Circle.R), num(g.Circle.StrokeWidth))
	}
	if g.PlusArm > 0 {
		a := num(g.PlusArm)
		fmt.Fprintf(buf, `    <path class="plus" d="M -%s 0 h %s M 0 -%s v %s"/>`+"\n", a, num(2*g.PlusArm), a, num(2*g.PlusArm))
	}
	fmt.Fprintf(buf, `    <circle class="%s" r="%s"><title>%s</title></circle>`+"\n",
		render.ClassHitTarget, num(g.HitRadius), escapeXML(g.Name))
	buf.WriteString("  </g>\n")
}

func renderLabel(buf *bytes.Buffer, l render.TextBox, baseline string) {
	fmt.Fprintf(buf, `  <text id="label-%s" class="%s" x="%s" y="%s" text-anchor="middle" dominant-baseline="%s">%s</text>`+"\n",
		escapeXML(l.Key), l.Class, num(l.X), num(l.Edge), baseline, escapeXML(l.Text))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func num(v float64) string { return geometry.FormatNumber(v) }
