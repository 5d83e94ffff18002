package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/memescout/memescout/internal/cache"
	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/internal/scraper"
)

// queryMaxLen caps caller-supplied queries before they reach the cache
// or any upstream.
const queryMaxLen = 100

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handleNotFound(w, r)
		return
	}

	startTime := time.Now()

	rawQuery := r.URL.Query().Get("query")
	cleanQuery := trimQuery(rawQuery)
	if cleanQuery == "" {
		writeJSON(w, http.StatusBadRequest, errorResponseDTO{
			Success: false,
			Error:   "Query parameter is required and must be a non-empty string",
		})
		return
	}

	page, ok := parsePage(r.URL.Query().Get("page"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponseDTO{
			Success: false,
			Error:   fmt.Sprintf("Page must be a number between %d and %d", scraper.MinPage, scraper.MaxPage),
		})
		return
	}

	cacheKey := cache.Key(cleanQuery, page)
	if records, hit := s.responseCache.Get(cacheKey); hit {
		writeJSON(w, http.StatusOK, searchResponseDTO{
			Success:      true,
			Data:         flattenRecords(records),
			Source:       SourceCache,
			ResponseTime: formatResponseTime(startTime),
			Cached:       true,
			Query:        cleanQuery,
			Page:         page,
		})
		return
	}

	records, source, err := s.resolve(r.Context(), cleanQuery, page)
	if err != nil {
		if isInvalidInput(err) {
			writeJSON(w, http.StatusBadRequest, errorResponseDTO{
				Success: false,
				Error:   "Page must be a number between 1 and 100",
			})
			return
		}
		s.metadataSink.RecordError(
			time.Now(),
			"server",
			"Server.handleSearch",
			metadata.CauseUnknown,
			err.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrQuery, cleanQuery)},
		)
		writeJSON(w, http.StatusInternalServerError, errorResponseDTO{
			Success: false,
			Error:   "Internal server error while searching memes",
		})
		return
	}

	// Empty result sets are served but never cached; the next request
	// gets a fresh look upstream.
	s.responseCache.Put(cacheKey, records)

	writeJSON(w, http.StatusOK, searchResponseDTO{
		Success:      true,
		Data:         flattenRecords(records),
		Source:       source,
		ResponseTime: formatResponseTime(startTime),
		Cached:       false,
		Query:        cleanQuery,
		Page:         page,
	})
}

// resolve picks the data source: popular-style queries on the first
// page try the official API before falling back to scraping; everything
// else scrapes directly.
func (s *Server) resolve(ctx context.Context, query string, page int) ([]extractor.MemeRecord, string, error) {
	if s.isPopularQuery(query, page) {
		records, err := s.popularSource.PopularMemes(ctx)
		if err == nil && len(records) > 0 {
			return records, SourceUpstreamAPI, nil
		}

		result, searchErr := s.searcher.Search(ctx, query, page)
		if searchErr != nil {
			return nil, "", searchErr
		}
		return result.Records, SourceScraperFallback, nil
	}

	result, searchErr := s.searcher.Search(ctx, query, page)
	if searchErr != nil {
		return nil, "", searchErr
	}
	return result.Records, SourceScraper, nil
}

func (s *Server) isPopularQuery(query string, page int) bool {
	if page != 1 {
		return false
	}
	lowered := strings.ToLower(query)
	return lowered == "" || lowered == "meme" || lowered == "popular"
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handleNotFound(w, r)
		return
	}

	cacheStats := s.responseCache.Stats()
	limiterStats := s.rateLimiter.Stats()
	now := time.Now()

	writeJSON(w, http.StatusOK, statsResponseDTO{
		Success: true,
		Cache: cacheStatsDTO{
			TotalEntries:   cacheStats.TotalEntries,
			ValidEntries:   cacheStats.ValidEntries,
			ExpiredEntries: cacheStats.ExpiredEntries,
			OldestEntryAge: cacheStats.OldestEntryAge.String(),
			NewestEntryAge: cacheStats.NewestEntryAge.String(),
		},
		RateLimit: rateLimitStatsDTO{
			TrackedClients:       limiterStats.TrackedClients,
			TotalRequestsTracked: limiterStats.TotalRequestsTracked,
		},
		UptimeMs:    now.Sub(s.startedAt).Milliseconds(),
		TimestampMs: now.UnixMilli(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponseDTO{
		Success: false,
		Error:   "Not found",
	})
}

func trimQuery(raw string) string {
	trimmed := strings.TrimSpace(raw)
	runes := []rune(trimmed)
	if len(runes) > queryMaxLen {
		return string(runes[:queryMaxLen])
	}
	return trimmed
}

func parsePage(raw string) (int, bool) {
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < scraper.MinPage || page > scraper.MaxPage {
		return 0, false
	}
	return page, true
}

// clientKey identifies the caller for rate limiting: the first
// X-Forwarded-For hop when present, the remote address otherwise.
func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.Split(forwarded, ",")[0]
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isInvalidInput(err error) bool {
	var searchErr *scraper.SearchError
	return errors.As(err, &searchErr) && searchErr.IsInvalidInput()
}

func flattenRecords(records []extractor.MemeRecord) []memeDTO {
	out := make([]memeDTO, 0, len(records))
	for _, record := range records {
		out = append(out, memeDTO{
			Title:       record.Title,
			MemeURL:     record.MemeURL,
			TemplateURL: record.Template.URL,
		})
	}
	return out
}

func formatResponseTime(start time.Time) string {
	return fmt.Sprintf("%dms", time.Since(start).Milliseconds())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
