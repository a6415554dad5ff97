package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/selection"
	"github.com/matzehuels/stagegraph/pkg/stage"
	"github.com/matzehuels/stagegraph/pkg/view"
)

// browseCommand creates the browse command, a terminal host for the graph.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		lf  layoutFlags
		sel int
	)

	cmd := &cobra.Command{
		Use:   "browse [stages.yaml]",
		Short: "Walk the pipeline graph in the terminal",
		Long: `Walk the pipeline graph in the terminal.

Every node of the layout is listed in drawing order. Enter clicks the node
under the cursor: stage and start nodes become selected and the click is
reported, add placeholders do nothing. Press r after editing the stage file
to reload it; the layout is only recomputed if the stages changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			path := args[0]

			stages, err := loadStages(ctx, path)
			if err != nil {
				return err
			}

			var clicks []selection.Click
			opts := []view.Option{
				view.WithOverrides(lf.apply(cmd, cfg.Layout)),
				view.WithLogger(c.Logger),
				view.WithListener(func(cl selection.Click) { clicks = append(clicks, cl) }),
			}
			if cmd.Flags().Changed("select") {
				opts = append(opts, view.WithSelectedStage(sel))
			}
			v := view.New(stages, opts...)

			reload := func() ([]stage.Stage, error) { return loadStages(ctx, path) }
			return runBrowse(ctx, v, reload, &clicks)
		},
	}

	lf.register(cmd)
	cmd.Flags().IntVar(&sel, "select", 0, "start with the node of this stage id selected")

	return cmd
}

func runBrowse(ctx context.Context, v *view.View, reload func() ([]stage.Stage, error), clicks *[]selection.Click) error {
	p := tea.NewProgram(NewBrowseModel(ctx, v, reload), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("browse: %w", err)
	}

	if len(*clicks) == 0 {
		printInfo("No clicks")
		return nil
	}
	for _, cl := range *clicks {
		printDetail("clicked %s (%d)", cl.Name, cl.ID)
	}
	if s := v.Selection(); !s.None() {
		printSuccess("Selected %s", s.Key)
	}
	return nil
}
