package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/plwdash/cache"
	"github.com/spektr-org/plwdash/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over HTTP",
	Long: `Starts the JSON API. The sheet is loaded on the first request and kept for
data.cache_ttl; POST /api/refresh reloads it immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tc := cache.New(cfg.GetCacheTTL(), loadDataset, cache.WithLogger(logger))
		// Warm the cache so a bad sheet shows up in the log at startup.
		if _, err := tc.Get(ctx); err != nil {
			logger.Warn("initial load failed; serving errors until the sheet is fixed", zap.Error(err))
		}

		srv := server.New(tc,
			server.WithLogger(logger),
			server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			server.WithCurrency(cfg.Display.Currency),
		)
		return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.GetShutdownTimeout())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
