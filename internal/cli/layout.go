package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/runner"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// layoutCommand creates the layout command for computing graph layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [stages.yaml]",
		Short: "Compute the graph layout of a stage file",
		Long: `Compute the graph layout of a stage file.

The layout command reads a stage file (.json, .yaml or .toml) and computes the
position of every node, connector and label. The output is a layout.json file
that can be rendered to SVG/PNG/PDF with the 'visualize' command.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := runner.Options{
				Overrides: lf.apply(cmd, cfg.Layout),
				Refresh:   refresh,
			}
			return c.runLayout(cmd.Context(), cfg, args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	lf.register(cmd)

	return cmd
}

// runLayout loads the stages, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, cfg *config.Config, input string, opts runner.Options, output string, noCache bool) error {
	stages, err := loadStages(ctx, input)
	if err != nil {
		return err
	}
	opts.Stages = stages
	opts.Logger = c.Logger

	r, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer r.Close()

	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()

	m, cacheHit, err := r.LayoutWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	if err := layout.WriteModelFile(m, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(graphStats{
		stages:      stage.Count(stages),
		nodes:       len(m.Nodes),
		connections: len(m.Connections),
		cached:      cacheHit,
	})
	printNewline()
	printNextStep("Render", "stagegraph visualize "+outputPath)

	return nil
}

// loadStages reads a stage file and reports it to the layout hooks.
func loadStages(ctx context.Context, path string) ([]stage.Stage, error) {
	stages, err := stage.ReadFile(path)
	observability.Layout().OnStagesLoaded(ctx, path, len(stages), err)
	if err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Debug("loaded stages", "path", path, "stages", len(stages), "total", stage.Count(stages))
	return stages, nil
}
