package runner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/render"
	"github.com/matzehuels/stagegraph/pkg/render/nodelink"
	"github.com/matzehuels/stagegraph/pkg/render/sink"
	"github.com/matzehuels/stagegraph/pkg/selection"
)

// ResolveSelection returns the selection to seed artifacts of m with.
// An unknown SelectedKey is an error; an unknown SelectedStage only
// seeds nothing.
func ResolveSelection(m *layout.Model, opts Options) (selection.State, error) {
	if opts.SelectedKey != "" {
		n, ok := m.Node(opts.SelectedKey)
		if !ok {
			return selection.State{}, errors.New(errors.ErrCodeNodeNotFound, "no node with key %q", opts.SelectedKey)
		}
		return selection.Select(n), nil
	}
	if opts.HasSelectedStage {
		if sel, ok := selection.ForStage(m, opts.SelectedStage); ok {
			return sel, nil
		}
		if opts.Logger != nil {
			opts.Logger.Warn("selected stage not in layout", "stage", opts.SelectedStage)
		}
	}
	return selection.State{}, nil
}

// RenderFromModel renders every requested format of m with selection sel.
// Formats are rendered concurrently; they share one read-only scene.
func RenderFromModel(ctx context.Context, m *layout.Model, sel selection.State, opts Options) (map[string][]byte, error) {
	var renderOne func(ctx context.Context, format string) ([]byte, error)
	switch opts.VizType {
	case VizNodelink:
		renderOne = nodelinkRenderer(m, opts)
	default:
		renderOne = pipelineRenderer(m, sel, opts)
	}

	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte, len(opts.Formats))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := renderOne(gctx, format)
			if err != nil {
				return errors.Wrap(codeOf(err), err, "render %s", format)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func pipelineRenderer(m *layout.Model, sel selection.State, opts Options) func(context.Context, string) ([]byte, error) {
	scene := render.Project(m, sel)
	svgOpts := buildSVGOptions(opts)

	return func(ctx context.Context, format string) ([]byte, error) {
		switch format {
		case FormatSVG:
			return sink.RenderSVG(scene, svgOpts...), nil
		case FormatPNG:
			return sink.RenderPNG(ctx, scene, sink.WithScale(opts.Scale), sink.WithPNGSVGOptions(svgOpts...))
		case FormatPDF:
			return sink.RenderPDF(ctx, scene, sink.WithPDFSVGOptions(svgOpts...))
		case FormatJSON:
			return sink.RenderJSON(scene, sink.WithJSONSelected(sel.Key), sink.WithJSONConstants(m.Constants))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported pipeline format: %s", format)
		}
	}
}

func nodelinkRenderer(m *layout.Model, opts Options) func(context.Context, string) ([]byte, error) {
	dot := nodelink.ToDOT(m, nodelink.Options{Detailed: opts.Detailed})

	return func(ctx context.Context, format string) ([]byte, error) {
		switch format {
		case FormatDOT:
			return []byte(dot), nil
		case FormatSVG:
			return nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			return nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			return nodelink.RenderPDF(ctx, dot)
		case FormatJSON:
			return layout.MarshalModel(m)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported nodelink format: %s", format)
		}
	}
}

func buildSVGOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.NoCSS {
		svgOpts = append(svgOpts, sink.WithoutCSS())
	}
	if opts.ClickEndpoint != "" {
		svgOpts = append(svgOpts, sink.WithClickEndpoint(opts.ClickEndpoint))
	}
	return svgOpts
}

func codeOf(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}
