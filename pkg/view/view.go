// Package view holds the state behind one drawn pipeline graph.
//
// A [View] owns the stage list, the effective layout constants, the laid
// out [layout.Model] and the current [selection.State]. Layout is
// recomputed only when the stages or the constants change; selection
// changes only affect the next [View.Scene].
//
//	v := view.New(stages, view.WithListener(func(c selection.Click) {
//	    fmt.Println("clicked", c.Name, c.ID)
//	}))
//	v.Click(ctx, "n_1")
//	svg := sink.RenderSVG(v.Scene())
//
// A View is not safe for concurrent use.
package view

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/render"
	"github.com/matzehuels/stagegraph/pkg/selection"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// Listener receives reported clicks.
type Listener func(selection.Click)

// View is the host-side state holder for one graph.
type View struct {
	stages    []stage.Stage
	overrides layout.Overrides
	constants layout.Constants
	model     *layout.Model
	sel       selection.State
	listeners []Listener
	logger    *log.Logger
	relayouts int
}

// Option configures a View.
type Option func(*View)

// WithOverrides replaces individual default layout constants.
func WithOverrides(o layout.Overrides) Option {
	return func(v *View) { v.overrides = o }
}

// WithSelectedStage seeds the highlight from an externally selected stage.
func WithSelectedStage(id int) Option {
	return func(v *View) {
		v.relayout()
		if sel, ok := selection.ForStage(v.model, id); ok {
			v.sel = sel
		}
	}
}

// WithListener registers a click listener.
func WithListener(fn Listener) Option {
	return func(v *View) { v.listeners = append(v.listeners, fn) }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(v *View) { v.logger = l }
}

// New lays out stages and returns a view with nothing selected.
// Options apply in order, so WithOverrides must precede WithSelectedStage.
func New(stages []stage.Stage, opts ...Option) *View {
	v := &View{
		stages: stages,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.model == nil || v.constants != layout.Defaults().Merge(v.overrides) {
		v.relayout()
	}
	return v
}

func (v *View) relayout() {
	v.constants = layout.Defaults().Merge(v.overrides)
	v.model = layout.Layout(v.stages, v.constants)
	v.relayouts++

	// Keys are stable across layouts, so a selection survives unless its
	// node disappeared.
	if _, ok := v.sel.Resolve(v.model); !ok {
		v.sel = selection.State{}
	}
}

// SetStages replaces the stage list. It reports whether a new layout was
// computed, which only happens if the stages differ from the current ones.
func (v *View) SetStages(stages []stage.Stage) bool {
	if stage.EqualList(v.stages, stages) {
		return false
	}
	v.stages = stages
	v.relayout()
	return true
}

// SetOverrides replaces the constant overrides. It reports whether a new
// layout was computed, which only happens if the effective constants
// changed.
func (v *View) SetOverrides(o layout.Overrides) bool {
	v.overrides = o
	if layout.Defaults().Merge(o) == v.constants {
		return false
	}
	v.relayout()
	return true
}

// SelectStage highlights the node for stage id without reporting a click.
// It reports whether the stage is in the layout.
func (v *View) SelectStage(ctx context.Context, id int) bool {
	sel, ok := selection.ForStage(v.model, id)
	if !ok {
		return false
	}
	v.setSelection(ctx, sel)
	return true
}

// SelectKey highlights the node with key without reporting a click.
func (v *View) SelectKey(ctx context.Context, key string) error {
	n, ok := v.model.Node(key)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "no node with key %q", key)
	}
	v.setSelection(ctx, selection.Select(n))
	return nil
}

// ClearSelection removes the highlight.
func (v *View) ClearSelection(ctx context.Context) {
	v.setSelection(ctx, selection.State{})
}

// Click handles a click on the node with key. Stage and start nodes become
// selected and are reported to every listener; add placeholders report
// nothing. The returned bool tells whether the click was reported.
func (v *View) Click(ctx context.Context, key string) (selection.Click, bool, error) {
	n, ok := v.model.Node(key)
	if !ok {
		return selection.Click{}, false, errors.New(errors.ErrCodeNodeNotFound, "no node with key %q", key)
	}

	click, report, next := selection.HandleClick(v.sel, n)
	observability.Selection().OnClick(ctx, key, report)
	if !report {
		v.logger.Debug("add placeholder clicked", "key", key)
		return click, false, nil
	}

	v.setSelection(ctx, next)
	for _, fn := range v.listeners {
		fn(click)
	}
	return click, true, nil
}

func (v *View) setSelection(ctx context.Context, sel selection.State) {
	if sel.Key != v.sel.Key {
		observability.Selection().OnSelectionChanged(ctx, v.sel.Key, sel.Key)
	}
	v.sel = sel
}

// OnClick registers a click listener.
func (v *View) OnClick(fn Listener) {
	v.listeners = append(v.listeners, fn)
}

// Stages returns the current stage list.
func (v *View) Stages() []stage.Stage { return v.stages }

// Constants returns the effective layout constants.
func (v *View) Constants() layout.Constants { return v.constants }

// Model returns the current layout. Callers must not modify it.
func (v *View) Model() *layout.Model { return v.model }

// Selection returns the current selection.
func (v *View) Selection() selection.State { return v.sel }

// Scene projects the current layout with the current selection.
func (v *View) Scene() *render.Scene {
	return render.Project(v.model, v.sel)
}

// Relayouts returns how many layouts this view has computed.
func (v *View) Relayouts() int { return v.relayouts }
