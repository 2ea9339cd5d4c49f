package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/cli/config"
	"github.com/conduit-lang/stencil/internal/cli/ui"
	"github.com/conduit-lang/stencil/internal/compiler/cache"
	"github.com/conduit-lang/stencil/internal/server"
)

// NewServeCommand creates the serve command
func NewServeCommand(flags *globalFlags) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP compile server",
		Long: `Start an HTTP server that compiles templates on request.

Endpoints:
  POST /api/compile   compile {"source", "filename"} and return the handoff
  POST /api/parse     parse only and return the tree with diagnostics
  GET  /api/stats     compile cache metrics
  GET  /ws            compile every message sent over a WebSocket
  GET  /healthz       liveness probe

Examples:
  stencil serve
  stencil serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, coord, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer coord.Close()

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			config := server.DefaultConfig()
			config.Address = cfg.Address()
			if cfg.Server.RateLimit > 0 {
				limiter, closeLimiter, err := newLimiter(cfg, logger)
				if err != nil {
					return err
				}
				defer closeLimiter()
				config.Limiter = limiter
			}

			srv, err := server.New(config, coord, logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			out := cmd.OutOrStdout()
			ui.Header(out, "Stencil compile server", flags.noColor)
			kv := ui.NewKeyValueTable(out, flags.noColor)
			kv.AddRow("Address", "http://"+config.Address)
			kv.AddRow("Cache", cfg.Cache.Backend)
			if cfg.Server.RateLimit > 0 {
				kv.AddRow("Rate limit", fmt.Sprintf("%d/min per client", cfg.Server.RateLimit))
			}
			kv.Render()
			fmt.Fprintln(out)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx, 10*time.Second)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default: server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default: server.port)")

	return cmd
}

// newLimiter shares limits through Redis when the cache uses Redis and
// keeps them in memory otherwise
func newLimiter(cfg *config.Config, logger *zap.Logger) (server.Limiter, func(), error) {
	if cfg.Cache.Backend != cache.BackendRedis {
		tb := server.NewTokenBucket(cfg.Server.RateLimit, time.Minute)
		return tb, func() { tb.Close() }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	limiter, err := server.NewRedisLimiter(client, cfg.Server.RateLimit, time.Minute, cfg.Cache.Redis.Prefix+"ratelimit:")
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	logger.Debug("rate limiting through redis", zap.String("addr", cfg.Cache.Redis.Addr))
	return limiter, func() { client.Close() }, nil
}
