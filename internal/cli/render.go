package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/pkg/runner"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// renderFlags holds the render options shared by render and visualize.
type renderFlags struct {
	vizType    string
	formatsStr string
	output     string
	scale      float64
	noCSS      bool
	detailed   bool
	noCache    bool
	sel        selectFlags
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&f.vizType, "type", "t", runner.VizPipeline, "visualization type: pipeline, nodelink")
	cmd.Flags().StringVarP(&f.formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().Float64Var(&f.scale, "scale", runner.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&f.noCSS, "no-css", false, "omit the embedded stylesheet (pipeline SVG)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "label nodes with kind and key (nodelink)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	f.sel.register(cmd)
}

func (f *renderFlags) options(cmd *cobra.Command) runner.Options {
	opts := runner.Options{
		VizType:  f.vizType,
		Formats:  parseFormats(f.formatsStr),
		Scale:    f.scale,
		NoCSS:    f.noCSS,
		Detailed: f.detailed,
	}
	f.sel.apply(cmd, &opts)
	return opts
}

// renderCommand creates the render command: layout and render in one step.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		rf      renderFlags
		lf      layoutFlags
		refresh bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "render [stages.yaml]",
		Short: "Render a stage file to SVG, PNG, PDF, JSON or DOT",
		Long: `Render a stage file to SVG, PNG, PDF, JSON or DOT.

The render command lays out the stages and renders the graph in one step.
Use --select to highlight the node of a stage, as if it had been clicked.

With --watch, the file is rendered again whenever it changes; the layout is
only recomputed if the stages actually differ.

PNG and PDF output of the pipeline view need rsvg-convert on PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := rf.options(cmd)
			opts.Overrides = lf.apply(cmd, cfg.Layout)
			opts.Refresh = refresh
			if err := opts.ValidateForRender(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if !watch {
				return c.runRender(ctx, cfg, args[0], opts, rf)
			}
			return c.watchRender(ctx, cfg, args[0], opts, rf)
		},
	}

	rf.register(cmd)
	lf.register(cmd)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "render again when the stage file changes")

	return cmd
}

// runRender lays out and renders input once.
func (c *CLI) runRender(ctx context.Context, cfg *config.Config, input string, opts runner.Options, rf renderFlags) error {
	stages, err := loadStages(ctx, input)
	if err != nil {
		return err
	}
	_, err = c.renderStages(ctx, cfg, input, stages, opts, rf)
	return err
}

// renderStages runs the pipeline for stages and writes the artifacts.
func (c *CLI) renderStages(ctx context.Context, cfg *config.Config, input string, stages []stage.Stage, opts runner.Options, rf renderFlags) (*runner.Result, error) {
	opts.Stages = stages
	opts.Logger = c.Logger

	r, err := c.newRunner(ctx, cfg, rf.noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer r.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", opts.VizType))
	spinner.Start()

	result, err := r.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return nil, fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	err = writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    rf.output,
		stats: graphStats{
			stages:      stage.Count(stages),
			nodes:       result.Stats.NodeCount,
			connections: result.Stats.ConnectionCount,
			cached:      result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit,
		},
	})
	if err != nil {
		return nil, err
	}
	if result.SelectedKey != "" {
		printDetail("selected %s", result.SelectedKey)
	}
	return result, nil
}

// =============================================================================
// Artifact Output
// =============================================================================

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	stats     graphStats
}

// artifactPaths maps each format to its output file. A single format may be
// written to an explicit output path; otherwise files share a base path.
func artifactPaths(formats []string, input, output string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func writeArtifacts(p artifactWriteParams) error {
	paths := artifactPaths(p.formats, p.input, p.output)

	printSuccess("Render complete")
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := paths[format]
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(p.stats)
	return nil
}
