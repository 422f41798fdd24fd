package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/handwrite/internal/server"
	"github.com/matzehuels/handwrite/pkg/cache"
	"github.com/matzehuels/handwrite/pkg/session"
)

const defaultAddr = "localhost:8080"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	assets     string
	addr       string
	redis      string
	sessionDir string
	sessionTTL time.Duration
}

// serveCommand creates the preview server command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP preview server",
		Long: `Serve renders pages over HTTP. Each session keeps its own recency windows,
so repeated previews in one session keep avoiding recently used variants.

Sessions live in memory unless --redis or --session-dir is given. With Redis
the export cache is shared there too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.assets, "assets", "", "variant directory (default from config)")
	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis URL for sessions and the export cache")
	cmd.Flags().StringVar(&opts.sessionDir, "session-dir", "", "keep sessions as files in this directory")
	cmd.Flags().DurationVar(&opts.sessionTTL, "session-ttl", session.DefaultTTL, "idle time before a session expires")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cmd *cobra.Command, opts *serveOpts) error {
	cfg := c.settings().Server
	if !cmd.Flags().Changed("addr") && cfg.Addr != "" {
		opts.addr = cfg.Addr
	}
	if !cmd.Flags().Changed("redis") && cfg.Redis != "" {
		opts.redis = cfg.Redis
	}
	if !cmd.Flags().Changed("session-ttl") && cfg.SessionTTL > 0 {
		opts.sessionTTL = cfg.SessionTTL
	}

	assets, err := c.openAssets(opts.assets)
	if err != nil {
		return err
	}

	var (
		store    session.Store
		artCache cache.Cache
		keyer    cache.Keyer
	)
	switch {
	case opts.redis != "":
		client, err := cache.Dial(ctx, opts.redis)
		if err != nil {
			return err
		}
		defer client.Close()
		store = session.NewRedisStore(client, "")
		artCache = cache.NewRedisCacheFromClient(client)
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":")
		printInfo("Sessions and cache in Redis")
	default:
		if opts.sessionDir != "" {
			fs, err := session.NewFileStore(opts.sessionDir)
			if err != nil {
				return err
			}
			store = fs
			printInfo("Sessions in %s", fs.Path())
		} else {
			store = session.NewMemoryStore()
		}
		if artCache, keyer, err = c.newCache(ctx, false); err != nil {
			return err
		}
	}
	defer store.Close()
	defer artCache.Close()

	srv := server.New(assets, store,
		server.WithCache(artCache, keyer),
		server.WithLogger(c.Logger),
		server.WithSessionTTL(opts.sessionTTL),
	)
	printSuccess("Serving previews on http://%s", opts.addr)
	return srv.ListenAndServe(ctx, opts.addr)
}
