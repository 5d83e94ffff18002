package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/fetcher"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/failure"
	"github.com/memescout/memescout/pkg/retry"
	"github.com/memescout/memescout/pkg/urlutil"
)

/*
Responsibilities
- Validate search input and build the upstream search URL
- Fetch the results page; a failure here fails the whole search, since
  without a results page there is nothing to extract
- Drive link extraction and the batch fetch
- Aggregate records into a SearchResultSet with pagination metadata

Partial success is success: links whose detail pages fail or carry no
usable template are simply absent from the result.
*/

const (
	MinPage = 1
	MaxPage = 100

	// Results-page bodies shorter than this signal a malformed or
	// blocked fetch rather than an empty result list.
	minSearchBodyBytes = 500

	// Upstream shows about this many results on a full page. Used as
	// the fallback signal for HasNextPage when no pager link is found.
	fullPageThreshold = 20
)

type SearchOrchestrator struct {
	linkExtractor extractor.LinkExtractor
	batchFetcher  BatchFetcher
	pageFetcher   fetcher.Fetcher
	metadataSink  metadata.Sink
	userAgent     string
	retryParam    retry.RetryParam
	chunkSize     int
	includeNSFW   bool
}

func NewSearchOrchestrator(
	pageFetcher fetcher.Fetcher,
	batchFetcher BatchFetcher,
	metadataSink metadata.Sink,
	userAgent string,
	retryParam retry.RetryParam,
	chunkSize int,
	includeNSFW bool,
) SearchOrchestrator {
	return SearchOrchestrator{
		linkExtractor: extractor.NewLinkExtractor(),
		batchFetcher:  batchFetcher,
		pageFetcher:   pageFetcher,
		metadataSink:  metadataSink,
		userAgent:     userAgent,
		retryParam:    retryParam,
		chunkSize:     chunkSize,
		includeNSFW:   includeNSFW,
	}
}

// Search runs one orchestrated search for the given query and page.
func (s *SearchOrchestrator) Search(ctx context.Context, query string, page int) (SearchResultSet, failure.ClassifiedError) {
	startTime := time.Now()

	if page < MinPage || page > MaxPage {
		return SearchResultSet{}, s.recordSearchError(&SearchError{
			Message:   fmt.Sprintf("page must be an integer between %d and %d, got %d", MinPage, MaxPage, page),
			Retryable: false,
			Cause:     ErrCauseInvalidPage,
		}, query)
	}

	cleanQuery := trimQuery(query)
	searchURL := s.buildSearchURL(cleanQuery, page)

	result, fetchErr := s.pageFetcher.Fetch(
		ctx,
		fetcher.NewFetchParam(searchURL, s.userAgent),
		s.retryParam,
	)
	if fetchErr != nil {
		return SearchResultSet{}, s.recordSearchError(&SearchError{
			Message:   fmt.Sprintf("search fetch for %q failed: %v", cleanQuery, fetchErr),
			Retryable: false,
			Cause:     ErrCauseSearchFetchFailed,
		}, cleanQuery)
	}

	body := result.Body()
	if len(body) < minSearchBodyBytes {
		return SearchResultSet{}, s.recordSearchError(&SearchError{
			Message:   fmt.Sprintf("search results body of %d bytes is below the %d byte floor", len(body), minSearchBodyBytes),
			Retryable: false,
			Cause:     ErrCauseSearchPageInvalid,
		}, cleanQuery)
	}

	links := s.linkExtractor.Extract(body)
	if len(links) == 0 {
		// A legitimate "no results" outcome.
		s.metadataSink.RecordSearch(cleanQuery, page, 0, 0, time.Since(startTime), "scraper")
		return SearchResultSet{
			Records:     nil,
			Page:        page,
			HasNextPage: false,
			TotalFound:  0,
		}, nil
	}

	records := s.batchFetcher.Run(ctx, links, s.chunkSize)

	s.metadataSink.RecordSearch(cleanQuery, page, len(links), len(records), time.Since(startTime), "scraper")

	return SearchResultSet{
		Records:     records,
		Page:        page,
		HasNextPage: hasNextPage(body, page, len(links)),
		TotalFound:  len(records),
	}, nil
}

// NextPage is sugar for Search on the following page.
func (s *SearchOrchestrator) NextPage(ctx context.Context, query string, currentPage int) (SearchResultSet, failure.ClassifiedError) {
	return s.Search(ctx, query, currentPage+1)
}

func (s *SearchOrchestrator) buildSearchURL(query string, page int) url.URL {
	values := url.Values{}
	values.Set("q", query)
	if s.includeNSFW {
		values.Set("nsfw", "on")
	}
	values.Set("page", strconv.Itoa(page))

	return url.URL{
		Scheme:   urlutil.SiteScheme,
		Host:     urlutil.SiteHost,
		Path:     "/memesearch",
		RawQuery: values.Encode(),
	}
}

func (s *SearchOrchestrator) recordSearchError(err *SearchError, query string) failure.ClassifiedError {
	s.metadataSink.RecordError(
		time.Now(),
		"scraper",
		"SearchOrchestrator.Search",
		mapSearchErrorToMetadataCause(err),
		err.Message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrQuery, query),
		},
	)
	return err
}

// hasNextPage is a best-effort heuristic: upstream exposes no reliable
// total, so we look for a pager link pointing at the next page and fall
// back to "this page looked full". Fragile against upstream markup
// changes; treated as advisory, not guaranteed.
func hasNextPage(body []byte, page int, linksFound int) bool {
	nextParam := "page=" + strconv.Itoa(page+1)
	if containsPagerLink(body, nextParam) {
		return true
	}
	return linksFound >= fullPageThreshold
}

func containsPagerLink(body []byte, nextParam string) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, "memesearch") && strings.Contains(href, nextParam) {
			found = true
			return false
		}
		return true
	})
	return found
}

func trimQuery(query string) string {
	return strings.TrimSpace(query)
}
