package render

import (
	"github.com/matzehuels/stagegraph/pkg/layout"
)

// CSS classes assigned to scene elements.
const (
	ClassConnector     = "pipeline-connector"
	ClassNode          = "pipeline-node"
	ClassNodeSelected  = "pipeline-node-selected"
	ClassHitTarget     = "pipeline-node-hittarget"
	ClassHighlight     = "pipeline-selection-highlight"
	ClassBigLabel      = "pipeline-big-label"
	ClassSmallLabel    = "pipeline-small-label"
	ClassLabelSelected = "selected"
)

// PlaceholderDashArray is the stroke dash pattern of connectors that touch
// a start or add node.
const PlaceholderDashArray = "5,2"

// Scene is a fully projected pipeline graph.
type Scene struct {
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Highlight   *Highlight  `json:"highlight,omitempty"`
	Connectors  []Connector `json:"connectors"`
	Nodes       []Glyph     `json:"nodes"`
	BigLabels   []TextBox   `json:"big_labels"`
	SmallLabels []TextBox   `json:"small_labels"`
}

// Highlight is the ring drawn behind the selected node.
type Highlight struct {
	NodeKey     string  `json:"node_key"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius"`
	StrokeWidth float64 `json:"stroke_width"`
}

// Connector is a drawn connection. Straight connectors are lines from
// (X1, Y1) to (X2, Y2); curved ones carry SVG path data in Path.
type Connector struct {
	Key         string  `json:"key"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Class       string  `json:"class"`
	StrokeWidth float64 `json:"stroke_width"`
	DashArray   string  `json:"dash_array,omitempty"`
	Straight    bool    `json:"straight"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Path        string  `json:"path,omitempty"`
}

// Dashed reports whether the connector touches a placeholder node.
func (c Connector) Dashed() bool { return c.DashArray != "" }

// Circle is a circle centred on its glyph's origin.
type Circle struct {
	R           float64 `json:"r"`
	Filled      bool    `json:"filled"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

// Glyph is a node drawn at (X, Y). Shapes are relative to that point.
type Glyph struct {
	Key       string          `json:"key"`
	Kind      layout.NodeKind `json:"kind"`
	Name      string          `json:"name"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Class     string          `json:"class"`
	Selected  bool            `json:"selected"`
	Circle    Circle          `json:"circle"`
	PlusArm   float64         `json:"plus_arm,omitempty"` // add nodes only
	HitRadius float64         `json:"hit_radius"`
}

// Transform returns the SVG transform placing the glyph.
func (g Glyph) Transform() string {
	return "translate(" + num(g.X) + "," + num(g.Y) + ")"
}

// Anchor tells which edge of a text box is pinned to Edge.
type Anchor string

const (
	AnchorBottom Anchor = "bottom"
	AnchorTop    Anchor = "top"
)

// TextBox is a positioned label. The box is Width wide starting at Left
// and centred on X. Its Anchor edge sits at y = Edge.
type TextBox struct {
	Key      string  `json:"key"`
	Text     string  `json:"text"`
	NodeKey  string  `json:"node_key"`
	Class    string  `json:"class"`
	Selected bool    `json:"selected"`
	X        float64 `json:"x"`
	Left     float64 `json:"left"`
	Width    float64 `json:"width"`
	Anchor   Anchor  `json:"anchor"`
	Edge     float64 `json:"edge"`

	// Style is the equivalent absolutely positioned CSS for HTML overlays.
	Style string `json:"style"`
}
