package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/runner"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,pdf,png", []string{"svg", "pdf", "png"}},
		{" SVG , dot ,", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseFormats(tt.input)); diff != "" {
				t.Errorf("parseFormats(%q) (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "pipeline.yaml", "pipeline"},
		{"", "dir/pipeline.toml", "dir/pipeline"},
		{"out.svg", "pipeline.yaml", "out"},
		{"out.dot", "pipeline.yaml", "out"},
		{"out", "pipeline.yaml", "out"},
		{"out.v2", "pipeline.yaml", "out.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestArtifactPaths(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		output  string
		want    map[string]string
	}{
		{"derived", []string{"svg"}, "", map[string]string{"svg": "pipeline.svg"}},
		{"explicit single", []string{"png"}, "graph.image", map[string]string{"png": "graph.image"}},
		{"multiple", []string{"svg", "json"}, "out/graph.svg", map[string]string{"svg": "out/graph.svg", "json": "out/graph.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := artifactPaths(tt.formats, "pipeline.yaml", tt.output)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("artifactPaths() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTrimLayoutSuffix(t *testing.T) {
	tests := map[string]string{
		"pipeline.layout.json": "pipeline.json",
		"pipeline.json":        "pipeline.json",
		".layout.json":         ".layout.json",
	}
	for in, want := range tests {
		if got := trimLayoutSuffix(in); got != want {
			t.Errorf("trimLayoutSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLayoutFlagsApply(t *testing.T) {
	var lf layoutFlags
	cmd := &cobra.Command{Use: "test"}
	lf.register(cmd)

	radius := 20.0
	base := layout.Overrides{NodeRadius: &radius}

	if got := lf.apply(cmd, base); got != base {
		t.Errorf("apply() without flags = %+v, want base", got)
	}

	if err := cmd.ParseFlags([]string{"--node-spacing-h", "200"}); err != nil {
		t.Fatal(err)
	}
	got := layout.Defaults().Merge(lf.apply(cmd, base))
	if got.NodeSpacingH != 200 || got.NodeRadius != 20 || got.NodeSpacingV != 70 {
		t.Errorf("merged constants = %+v", got)
	}
}

func TestSelectFlagsApply(t *testing.T) {
	var sf selectFlags
	cmd := &cobra.Command{Use: "test"}
	sf.register(cmd)

	var opts runner.Options
	sf.apply(cmd, &opts)
	if opts.HasSelectedStage || opts.SelectedKey != "" {
		t.Errorf("unset flags selected something: %+v", opts)
	}

	if err := cmd.ParseFlags([]string{"--select", "0", "--select-key", "s_-1"}); err != nil {
		t.Fatal(err)
	}
	sf.apply(cmd, &opts)
	if !opts.HasSelectedStage || opts.SelectedStage != 0 || opts.SelectedKey != "s_-1" {
		t.Errorf("options = %+v", opts)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir(config.DefaultConfig())
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	cfg := config.DefaultConfig()
	cfg.Cache.Dir = "/var/cache/sg"
	if dir, _ := cacheDir(cfg); dir != "/var/cache/sg" {
		t.Errorf("cacheDir() with configured dir = %q", dir)
	}
}

func TestNewCache(t *testing.T) {
	c := New(io.Discard, log.WarnLevel)
	ctx := context.Background()

	disabled := config.DefaultConfig()
	disabled.Cache.Disabled = true
	local := config.DefaultConfig()
	local.Cache.Dir = t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.Config
		noCache bool
		want    cache.Cache
	}{
		{"no-cache flag", local, true, cache.NullCache{}},
		{"disabled in config", disabled, false, cache.NullCache{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.newCache(ctx, tt.cfg, tt.noCache)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("newCache() = %T, want %T", got, tt.want)
			}
		})
	}

	got, err := c.newCache(ctx, local, false)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	fc, ok := got.(*cache.FileCache)
	if !ok {
		t.Fatalf("newCache() = %T, want *cache.FileCache", got)
	}
	if fc.Dir() != local.Cache.Dir {
		t.Errorf("FileCache dir = %q, want %q", fc.Dir(), local.Cache.Dir)
	}
}

func TestGraphStats(t *testing.T) {
	got := graphStats{stages: 4, nodes: 7, connections: 1, cached: true}.String()
	for _, want := range []string{"4 stages", "7 nodes", "1 connection", iconCached} {
		if !strings.Contains(got, want) {
			t.Errorf("stats line %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "1 connections") {
		t.Errorf("stats line %q pluralizes 1", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		1 << 20: "1.0 MiB",
	}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
