package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/memescout/memescout/internal/cache"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/internal/ratelimit"
	"github.com/memescout/memescout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the meme template API over HTTP",
	Long: `serve starts the HTTP API: GET /api/search-memes for template
search and GET /api/stats for cache and rate-limiter diagnostics.
The process runs until interrupted and drains in-flight requests on
shutdown.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := InitConfig()

		recorder := metadata.NewRecorder()
		orchestrator := buildOrchestrator(cfg, recorder)
		apiClient := buildAPIClient(cfg, recorder)

		srv := server.NewServer(
			cfg,
			cache.NewResponseCache(recorder, cfg.CacheTTL()),
			ratelimit.NewFixedWindowLimiter(recorder, cfg.RateLimitWindow(), cfg.RateLimitMax()),
			&orchestrator,
			&apiClient,
			recorder,
			recorder.Logger(),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
