// Package server is the HTTP boundary: it owns the rate limiter and the
// response cache, routes each search to the cheapest data source, and
// serialises results into the public JSON contract.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/memescout/memescout/internal/cache"
	"github.com/memescout/memescout/internal/config"
	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/internal/ratelimit"
	"github.com/memescout/memescout/internal/scraper"
	"github.com/memescout/memescout/pkg/failure"
)

// Searcher is the orchestrated scraping path.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (scraper.SearchResultSet, failure.ClassifiedError)
}

// PopularSource is the official-API fast path for popular memes.
type PopularSource interface {
	PopularMemes(ctx context.Context) ([]extractor.MemeRecord, failure.ClassifiedError)
}

type Server struct {
	cfg           config.Config
	responseCache *cache.ResponseCache
	rateLimiter   *ratelimit.FixedWindowLimiter
	searcher      Searcher
	popularSource PopularSource
	metadataSink  metadata.Sink
	logger        *log.Logger
	startedAt     time.Time
}

func NewServer(
	cfg config.Config,
	responseCache *cache.ResponseCache,
	rateLimiter *ratelimit.FixedWindowLimiter,
	searcher Searcher,
	popularSource PopularSource,
	metadataSink metadata.Sink,
	logger *log.Logger,
) *Server {
	return &Server{
		cfg:           cfg,
		responseCache: responseCache,
		rateLimiter:   rateLimiter,
		searcher:      searcher,
		popularSource: popularSource,
		metadataSink:  metadataSink,
		logger:        logger,
		startedAt:     time.Now(),
	}
}

// Handler builds the full middleware-wrapped route tree. Exposed so
// tests can drive the server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search-memes", s.handleSearch)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/", s.handleNotFound)
	return s.withCORS(s.withRequestLog(s.withRateLimit(mux)))
}

// Run serves until the context is cancelled, then drains in-flight
// requests within the configured shutdown grace period. The cache and
// limiter sweepers share the server's lifetime.
func (s *Server) Run(ctx context.Context) error {
	s.responseCache.StartSweeper(ctx, s.cfg.CacheSweepInterval())
	s.rateLimiter.StartSweeper(ctx, s.cfg.RateLimitSweepInterval())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port()),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()

	s.logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"client", clientKey(r),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := s.rateLimiter.Allow(clientKey(r))
		if !decision.Allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(decision.RetryAfter.Seconds())+1))
			writeJSON(w, http.StatusTooManyRequests, errorResponseDTO{
				Success: false,
				Error:   "Too many requests. Please try again later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
