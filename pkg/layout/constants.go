package layout

import (
	"github.com/matzehuels/stagegraph/pkg/errors"
)

const (
	// TopMargin is the y-coordinate of the first row, leaving room for the
	// big labels above it.
	TopMargin = 50.0

	// NodeStrokeWidth is the stroke width of stage node circles. It is not
	// configurable because connector endpoints are inset by half of it.
	NodeStrokeWidth = 3.5
)

// Constants are the dimensions used for layout, in pixels.
type Constants struct {
	NodeSpacingH         float64 `json:"node_spacing_h" yaml:"node_spacing_h" koanf:"node_spacing_h"`
	NodeSpacingV         float64 `json:"node_spacing_v" yaml:"node_spacing_v" koanf:"node_spacing_v"`
	NodeRadius           float64 `json:"node_radius" yaml:"node_radius" koanf:"node_radius"`
	CurveRadius          float64 `json:"curve_radius" yaml:"curve_radius" koanf:"curve_radius"`
	ConnectorStrokeWidth float64 `json:"connector_stroke_width" yaml:"connector_stroke_width" koanf:"connector_stroke_width"`
	LabelOffsetV         float64 `json:"label_offset_v" yaml:"label_offset_v" koanf:"label_offset_v"`
	SmallLabelOffsetV    float64 `json:"small_label_offset_v" yaml:"small_label_offset_v" koanf:"small_label_offset_v"`
}

// Defaults returns the default layout constants.
func Defaults() Constants {
	return Constants{
		NodeSpacingH:         120,
		NodeSpacingV:         70,
		NodeRadius:           12,
		CurveRadius:          12,
		ConnectorStrokeWidth: 3.5,
		LabelOffsetV:         25,
		SmallLabelOffsetV:    20,
	}
}

// Overrides holds optional replacements for individual constants.
// Nil fields keep the value they are merged into.
type Overrides struct {
	NodeSpacingH         *float64 `json:"node_spacing_h,omitempty" yaml:"node_spacing_h,omitempty" koanf:"node_spacing_h"`
	NodeSpacingV         *float64 `json:"node_spacing_v,omitempty" yaml:"node_spacing_v,omitempty" koanf:"node_spacing_v"`
	NodeRadius           *float64 `json:"node_radius,omitempty" yaml:"node_radius,omitempty" koanf:"node_radius"`
	CurveRadius          *float64 `json:"curve_radius,omitempty" yaml:"curve_radius,omitempty" koanf:"curve_radius"`
	ConnectorStrokeWidth *float64 `json:"connector_stroke_width,omitempty" yaml:"connector_stroke_width,omitempty" koanf:"connector_stroke_width"`
	LabelOffsetV         *float64 `json:"label_offset_v,omitempty" yaml:"label_offset_v,omitempty" koanf:"label_offset_v"`
	SmallLabelOffsetV    *float64 `json:"small_label_offset_v,omitempty" yaml:"small_label_offset_v,omitempty" koanf:"small_label_offset_v"`
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

// Merge returns c with every non-nil field of o applied.
func (c Constants) Merge(o Overrides) Constants {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.NodeSpacingH, o.NodeSpacingH)
	set(&c.NodeSpacingV, o.NodeSpacingV)
	set(&c.NodeRadius, o.NodeRadius)
	set(&c.CurveRadius, o.CurveRadius)
	set(&c.ConnectorStrokeWidth, o.ConnectorStrokeWidth)
	set(&c.LabelOffsetV, o.LabelOffsetV)
	set(&c.SmallLabelOffsetV, o.SmallLabelOffsetV)
	return c
}

// Validate checks constants coming from user configuration. [Layout]
// itself accepts any values.
func (c Constants) Validate() error {
	if c.NodeSpacingH <= 0 || c.NodeSpacingV <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "node spacing must be positive (got h=%g v=%g)", c.NodeSpacingH, c.NodeSpacingV)
	}
	if c.NodeRadius <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "node radius must be positive (got %g)", c.NodeRadius)
	}
	if c.CurveRadius < 0 || c.ConnectorStrokeWidth < 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "curve radius and connector stroke width cannot be negative")
	}
	return nil
}
