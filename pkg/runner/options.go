// Package runner provides the stage file → layout → artifact pipeline.
//
// The CLI and the HTTP server share this package so that caching, format
// validation and selection seeding behave identically in both.
//
// # Usage
//
//	r := runner.NewRunner(c, nil, logger)
//	res, err := r.Execute(ctx, runner.Options{
//	    Stages:  stages,
//	    Formats: []string{runner.FormatSVG, runner.FormatPNG},
//	})
//	svg := res.Artifacts[runner.FormatSVG]
//
// Stages can also be run independently:
//
//	m, err := r.Layout(ctx, opts)
//	artifacts, err := r.Render(ctx, m, opts)
package runner

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// Visualization types.
const (
	// VizPipeline draws the columnar pipeline graph.
	VizPipeline = "pipeline"

	// VizNodelink draws the connection graph through Graphviz.
	VizNodelink = "nodelink"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// DefaultScale is the PNG scale factor used when none is given.
const DefaultScale = 2.0

var validFormats = map[string]map[string]bool{
	VizPipeline: {FormatSVG: true, FormatPNG: true, FormatPDF: true, FormatJSON: true},
	VizNodelink: {FormatSVG: true, FormatPNG: true, FormatPDF: true, FormatJSON: true, FormatDOT: true},
}

// ValidateVizType checks that a visualization type is known.
func ValidateVizType(vizType string) error {
	if _, ok := validFormats[vizType]; !ok {
		return errors.New(errors.ErrCodeInvalidVizType, "invalid viz type: %q (must be one of: pipeline, nodelink)", vizType)
	}
	return nil
}

// ValidateFormat checks that format can be produced for vizType.
func ValidateFormat(vizType, format string) error {
	if err := ValidateVizType(vizType); err != nil {
		return err
	}
	if !validFormats[vizType][format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format for %s: %q", vizType, format)
	}
	return nil
}

// Options configures a run.
type Options struct {
	// Layout options
	Stages    []stage.Stage    `json:"stages"`
	Overrides layout.Overrides `json:"overrides,omitempty"`

	// Selection seeds the highlighted node. SelectedKey wins over
	// SelectedStage.
	SelectedKey      string `json:"selected_key,omitempty"`
	SelectedStage    int    `json:"selected_stage,omitempty"`
	HasSelectedStage bool   `json:"has_selected_stage,omitempty"`

	// Render options
	VizType       string   `json:"viz_type,omitempty"`
	Formats       []string `json:"formats,omitempty"`
	Scale         float64  `json:"scale,omitempty"`
	NoCSS         bool     `json:"no_css,omitempty"`
	ClickEndpoint string   `json:"click_endpoint,omitempty"`
	Detailed      bool     `json:"detailed,omitempty"`

	// Refresh skips cache reads. Results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Constants returns the default constants with Overrides applied.
func (o *Options) Constants() layout.Constants {
	return layout.Defaults().Merge(o.Overrides)
}

// ValidateForLayout checks the constants.
func (o *Options) ValidateForLayout() error {
	o.setLoggerDefault()
	c := o.Constants()
	return c.Validate()
}

// ValidateForRender applies render defaults and checks formats.
func (o *Options) ValidateForRender() error {
	o.setLoggerDefault()
	if o.VizType == "" {
		o.VizType = VizPipeline
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	seen := make(map[string]bool, len(o.Formats))
	formats := o.Formats[:0:0]
	for _, f := range o.Formats {
		if err := ValidateFormat(o.VizType, f); err != nil {
			return err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	o.Formats = formats
	return nil
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Constants: o.Constants()}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
// selectedKey is the resolved selection, not the requested one.
func (o *Options) ArtifactKeyOpts(format, selectedKey string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:        format,
		VizType:       o.VizType,
		SelectedKey:   selectedKey,
		NoCSS:         o.NoCSS,
		ClickEndpoint: o.ClickEndpoint,
		Detailed:      o.Detailed,
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// Result contains the outputs of a run.
type Result struct {
	// Model is the computed layout.
	Model *layout.Model

	// LayoutHash is the content hash of the serialized model.
	LayoutHash string

	// SelectedKey is the node highlighted in the artifacts, if any.
	SelectedKey string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	StageCount      int
	NodeCount       int
	ConnectionCount int
	LayoutTime      time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each step.
type CacheInfo struct {
	LayoutHit bool // Whether the model came from cache
	RenderHit bool // Whether all artifacts came from cache
}
