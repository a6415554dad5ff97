package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/internal/server"
	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/session"
)

// serveCommand creates the serve command, an HTTP host for the graph.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		lf           layoutFlags
		addr         string
		sessionStore string
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "serve [stages.yaml]",
		Short: "Serve the clickable pipeline graph over HTTP",
		Long: `Serve the clickable pipeline graph over HTTP.

Open the printed address in a browser to see the graph. Clicking a stage node
highlights it; every browser keeps its own selection in a session cookie.

Endpoints:
  GET    /graph.{svg,png,pdf,json,dot}   rendered graph (?viz=nodelink)
  GET    /api/layout                     layout model as JSON
  GET    /api/scene                      drawable scene as JSON
  PUT    /api/stages                     replace the stage list
  POST   /api/click/{key}                click a node
  GET    /api/selection                  current selection
  DELETE /api/selection                  clear the selection`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("session-store") {
				cfg.Server.SessionStore = sessionStore
			}
			cfg.Layout = lf.apply(cmd, cfg.Layout)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, args[0], noCache)
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config: 127.0.0.1:8080)")
	cmd.Flags().StringVar(&sessionStore, "session-store", "", "session store: memory, file, redis")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config, input string, noCache bool) error {
	stages, err := loadStages(ctx, input)
	if err != nil {
		return err
	}

	r, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer r.Close()

	store, err := c.newSessionStore(cfg, r.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SessionTTL:     cfg.Server.SessionTTL,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, stages, cfg.Layout, r, store, c.Logger)

	printSuccess("Serving %s", input)
	printKeyValue("Address", StyleLink.Render("http://"+cfg.Server.Addr))
	printKeyValue("Sessions", cfg.Server.SessionStore)
	printNewline()

	return srv.ListenAndServe(ctx)
}

// newSessionStore builds the configured store. A Redis store shares the
// cache's client when the cache is Redis too.
func (c *CLI) newSessionStore(cfg *config.Config, ch cache.Cache) (session.Store, error) {
	switch cfg.Server.SessionStore {
	case config.SessionStoreFile:
		return session.NewFileStore(cfg.Server.SessionDir)
	case config.SessionStoreRedis:
		if rc, ok := ch.(*cache.RedisCache); ok {
			return session.NewRedisStore(rc.Client()), nil
		}
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return session.NewRedisStore(redis.NewClient(opts)), nil
	default:
		return session.NewMemoryStore(), nil
	}
}
