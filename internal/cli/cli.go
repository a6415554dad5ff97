package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/pkg/buildinfo"
	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/runner"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "stagegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stagegraph",
		Short: "Stagegraph draws pipeline stages as a clickable graph",
		Long: `Stagegraph lays out a list of pipeline stages, some of which fan out into
parallel child stages, as a left-to-right graph of nodes and connectors, and
renders it to SVG, PNG, PDF, JSON or Graphviz DOT. Clicking a stage node
selects it; 'browse' and 'serve' host the graph interactively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/stagegraph/config.yaml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the --config file, or the default config path. A missing
// file yields the defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			c.Logger.Debug("no default config path", "error", err)
			return config.Load("")
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path)
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*runner.Runner, error) {
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}

	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}

	r := runner.NewRunner(ch, keyer, c.Logger)
	r.LayoutTTL = cfg.Cache.LayoutTTL
	r.ArtifactTTL = cfg.Cache.ArtifactTTL
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		c.Logger.Warn("caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the per-user default
// (~/.cache/stagegraph on Linux).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. A known format
// extension on output is stripped as well.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if knownFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

var knownFormats = map[string]bool{
	runner.FormatSVG:  true,
	runner.FormatPNG:  true,
	runner.FormatPDF:  true,
	runner.FormatJSON: true,
	runner.FormatDOT:  true,
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{runner.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// layoutFlags are the layout constant flags shared by every command that
// computes a layout. Only flags set on the command line override the config.
type layoutFlags struct {
	nodeSpacingH         float64
	nodeSpacingV         float64
	nodeRadius           float64
	curveRadius          float64
	connectorStrokeWidth float64
	labelOffsetV         float64
	smallLabelOffsetV    float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	d := layout.Defaults()
	cmd.Flags().Float64Var(&f.nodeSpacingH, "node-spacing-h", d.NodeSpacingH, "horizontal distance between columns")
	cmd.Flags().Float64Var(&f.nodeSpacingV, "node-spacing-v", d.NodeSpacingV, "vertical distance between rows")
	cmd.Flags().Float64Var(&f.nodeRadius, "node-radius", d.NodeRadius, "node circle radius")
	cmd.Flags().Float64Var(&f.curveRadius, "curve-radius", d.CurveRadius, "connector curve radius")
	cmd.Flags().Float64Var(&f.connectorStrokeWidth, "stroke-width", d.ConnectorStrokeWidth, "connector stroke width")
	cmd.Flags().Float64Var(&f.labelOffsetV, "label-offset", d.LabelOffsetV, "gap between a column's top node and its title")
	cmd.Flags().Float64Var(&f.smallLabelOffsetV, "small-label-offset", d.SmallLabelOffsetV, "gap between a node and its label")
}

// apply layers the flags the user set over base.
func (f *layoutFlags) apply(cmd *cobra.Command, base layout.Overrides) layout.Overrides {
	set := func(name string, v float64, dst **float64) {
		if cmd.Flags().Changed(name) {
			*dst = &v
		}
	}
	o := base
	set("node-spacing-h", f.nodeSpacingH, &o.NodeSpacingH)
	set("node-spacing-v", f.nodeSpacingV, &o.NodeSpacingV)
	set("node-radius", f.nodeRadius, &o.NodeRadius)
	set("curve-radius", f.curveRadius, &o.CurveRadius)
	set("stroke-width", f.connectorStrokeWidth, &o.ConnectorStrokeWidth)
	set("label-offset", f.labelOffsetV, &o.LabelOffsetV)
	set("small-label-offset", f.smallLabelOffsetV, &o.SmallLabelOffsetV)
	return o
}

// selectFlags seed the highlighted node.
type selectFlags struct {
	stage int
	key   string
}

func (f *selectFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.stage, "select", 0, "highlight the node of this stage id")
	cmd.Flags().StringVar(&f.key, "select-key", "", "highlight the node with this key (e.g. n_3, s_-1)")
}

func (f *selectFlags) apply(cmd *cobra.Command, opts *runner.Options) {
	opts.SelectedKey = f.key
	if cmd.Flags().Changed("select") {
		opts.SelectedStage = f.stage
		opts.HasSelectedStage = true
	}
}
