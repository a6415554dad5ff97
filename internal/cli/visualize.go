package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/runner"
)

// visualizeCommand creates the visualize command for rendering from a layout.
func (c *CLI) visualizeCommand() *cobra.Command {
	var rf renderFlags

	cmd := &cobra.Command{
		Use:   "visualize [layout.json]",
		Short: "Render a computed layout",
		Long: `Render a computed layout.

The visualize command takes a layout.json file (produced by 'layout') and
renders it. The layout holds every position, so this step is purely about
drawing; the stage file is not needed.

Use 'render' as a shortcut to go directly from a stage file to output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := rf.options(cmd)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			return c.runVisualize(cmd.Context(), cfg, args[0], opts, rf)
		},
	}

	rf.register(cmd)

	return cmd
}

// runVisualize loads the layout and renders it.
func (c *CLI) runVisualize(ctx context.Context, cfg *config.Config, input string, opts runner.Options, rf renderFlags) error {
	m, err := layout.ReadModelFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	opts.Logger = c.Logger

	r, err := c.newRunner(ctx, cfg, rf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer r.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", opts.VizType))
	spinner.Start()

	artifacts, cacheHit, err := r.RenderWithCacheInfo(ctx, m, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return fmt.Errorf("visualize: %w", err)
	}
	spinner.Stop()

	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     trimLayoutSuffix(input),
		output:    rf.output,
		stats: graphStats{
			nodes:       len(m.Nodes),
			connections: len(m.Connections),
			cached:      cacheHit,
		},
	})
}

// trimLayoutSuffix maps pipeline.layout.json to pipeline.json so that
// outputs are named pipeline.svg rather than pipeline.layout.svg.
func trimLayoutSuffix(path string) string {
	if base, ok := strings.CutSuffix(path, ".layout.json"); ok && base != "" {
		return base + ".json"
	}
	return path
}
