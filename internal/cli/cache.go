package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and artifact cache",
	}

	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openFileCache opens the local cache directory without creating it. It
// returns nil if the directory does not exist yet.
func openFileCache(cfg *config.Config) (*cache.FileCache, error) {
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return cache.NewFileCache(dir)
}

// withFileCache runs fn on the local cache, reporting an empty or
// Redis-backed cache instead.
func (c *CLI) withFileCache(fn func(fc *cache.FileCache) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Cache.RedisURL != "" {
		printWarning("Cache is stored in Redis; entries expire on their own")
		return nil
	}
	fc, err := openFileCache(cfg)
	if err != nil {
		return err
	}
	if fc == nil {
		printInfo("Cache is empty")
		return nil
	}
	return fn(fc)
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withFileCache(func(fc *cache.FileCache) error {
				st, err := fc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				printKeyValue("Directory", fc.Dir())
				printKeyValue("Entries", fmt.Sprint(st.Entries))
				printKeyValue("Expired", fmt.Sprint(st.Expired))
				printKeyValue("Size", formatBytes(st.Bytes))
				return nil
			})
		},
	}
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withFileCache(func(fc *cache.FileCache) error {
				n, err := fc.Prune(cmd.Context())
				if err != nil {
					return err
				}
				printSuccess("Removed %d expired entries", n)
				return nil
			})
		},
	}
}

// cacheClearCommand clears the local cache, or every key under the
// configured prefix when the cache lives in Redis.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.RedisURL != "" {
				return clearRedis(ctx, cfg)
			}

			fc, err := openFileCache(cfg)
			if err != nil {
				return err
			}
			if fc == nil {
				printInfo("Cache is empty")
				return nil
			}
			n, err := fc.Clear(ctx)
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func clearRedis(ctx context.Context, cfg *config.Config) error {
	rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}
	defer rc.Close()

	total := 0
	for _, kind := range []string{"layout", "artifact"} {
		n, err := rc.Clear(ctx, cfg.Cache.Prefix+kind+":*")
		total += n
		if err != nil {
			return err
		}
	}
	printSuccess("Cleared %d cached entries", total)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := cacheDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
