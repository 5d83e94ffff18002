package scraper_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/memescout/memescout/internal/fetcher"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/internal/scraper"
	"github.com/memescout/memescout/pkg/failure"
	"github.com/memescout/memescout/pkg/urlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchPage builds a results page referencing the given slugs, padded
// past the results-body sanity floor.
func searchPage(slugs []string, extra string) []byte {
	var b strings.Builder
	b.WriteString("<html><head><title>Meme Search - Imgflip</title></head><body><div class=\"search-results\">")
	for _, slug := range slugs {
		fmt.Fprintf(&b, `<a href="/meme/%s"><img src="/s/meme/%s.jpg"></a>`, slug, slug)
	}
	b.WriteString(extra)
	b.WriteString(strings.Repeat("<!-- padding to clear the body floor -->", 20))
	b.WriteString("</div></body></html>")
	return []byte(b.String())
}

func newOrchestrator(f fetcher.Fetcher) scraper.SearchOrchestrator {
	sink := &metadata.NoopSink{}
	bf := newBatchFetcher(f)
	return scraper.NewSearchOrchestrator(f, bf, sink, "memescout-test", noRetry(), 12, true)
}

// routes fetches by URL: the search endpoint gets the results page,
// detail pages get per-slug bodies.
func routedFetcher(results []byte, detail func(slug string) ([]byte, failure.ClassifiedError)) *fakeFetcher {
	return &fakeFetcher{
		respond: func(u url.URL) ([]byte, failure.ClassifiedError) {
			if strings.Contains(u.Path, "memesearch") {
				return results, nil
			}
			return detail(strings.TrimPrefix(u.Path, "/meme/"))
		},
	}
}

func TestSearch_EndToEnd(t *testing.T) {
	// Three distinct links; one detail page has no usable template.
	results := searchPage([]string{"cat-one", "cat-two", "cat-bare"}, "")
	f := routedFetcher(results, func(slug string) ([]byte, failure.ClassifiedError) {
		if slug == "cat-bare" {
			return []byte("<html><head><title>Bare - Imgflip</title></head><body>" +
				strings.Repeat("<p>no images</p>", 20) + "</body></html>"), nil
		}
		return detailPage(slug), nil
	})

	so := newOrchestrator(f)
	result, err := so.Search(context.Background(), "cat", 1)

	require.Nil(t, err)
	assert.Equal(t, 2, result.TotalFound)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "cat-one Meme", result.Records[0].Title)
	assert.Equal(t, "cat-two Meme", result.Records[1].Title)
	assert.Equal(t, 1, result.Page)

	for _, record := range result.Records {
		assert.True(t, urlutil.IsValidMediaURL(record.Template.URL))
	}
}

func TestSearch_RecordCountBoundedByLinks(t *testing.T) {
	results := searchPage([]string{"a", "b", "c", "d"}, "")
	f := routedFetcher(results, func(slug string) ([]byte, failure.ClassifiedError) {
		return detailPage(slug), nil
	})

	so := newOrchestrator(f)
	result, err := so.Search(context.Background(), "anything", 1)

	require.Nil(t, err)
	assert.LessOrEqual(t, len(result.Records), 4)
}

func TestSearch_PageOutOfRange(t *testing.T) {
	f := &fakeFetcher{
		respond: func(u url.URL) ([]byte, failure.ClassifiedError) {
			t.Fatal("no fetch expected for invalid page")
			return nil, nil
		},
	}
	so := newOrchestrator(f)

	for _, page := range []int{0, -1, 101} {
		_, err := so.Search(context.Background(), "cat", page)
		require.NotNil(t, err, "page %d must be rejected", page)

		var searchErr *scraper.SearchError
		require.ErrorAs(t, err, &searchErr)
		assert.True(t, searchErr.IsInvalidInput())
	}
}

func TestSearch_NoResultsIsNotAnError(t *testing.T) {
	results := searchPage(nil, "<p>No memes found!</p>")
	f := routedFetcher(results, func(slug string) ([]byte, failure.ClassifiedError) {
		t.Fatal("no detail fetch expected without links")
		return nil, nil
	})

	so := newOrchestrator(f)
	result, err := so.Search(context.Background(), "xyzzy-nothing", 1)

	require.Nil(t, err)
	assert.Zero(t, result.TotalFound)
	assert.Empty(t, result.Records)
	assert.False(t, result.HasNextPage)
}

func TestSearch_ShortBodyFailsTheSearch(t *testing.T) {
	f := &fakeFetcher{
		respond: func(u url.URL) ([]byte, failure.ClassifiedError) {
			return []byte("<html></html>"), nil
		},
	}

	so := newOrchestrator(f)
	_, err := so.Search(context.Background(), "cat", 1)

	require.NotNil(t, err)
	var searchErr *scraper.SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.Equal(t, scraper.SearchErrorCause(scraper.ErrCauseSearchPageInvalid), searchErr.Cause)
}

func TestSearch_FetchFailureFailsTheSearch(t *testing.T) {
	f := &fakeFetcher{
		respond: func(u url.URL) ([]byte, failure.ClassifiedError) {
			return nil, &fakeFetchError{msg: "status 503"}
		},
	}

	so := newOrchestrator(f)
	_, err := so.Search(context.Background(), "cat", 1)

	require.NotNil(t, err)
	var searchErr *scraper.SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.Equal(t, scraper.SearchErrorCause(scraper.ErrCauseSearchFetchFailed), searchErr.Cause)
}

func TestSearch_HasNextPageFromPagerLink(t *testing.T) {
	results := searchPage([]string{"a", "b"},
		`<a class="pager-next" href="/memesearch?q=cat&page=2">Next ›</a>`)
	f := routedFetcher(results, func(slug string) ([]byte, failure.ClassifiedError) {
		return detailPage(slug), nil
	})

	so := newOrchestrator(f)
	result, err := so.Search(context.Background(), "cat", 1)

	require.Nil(t, err)
	assert.True(t, result.HasNextPage)
}

func TestSearch_HasNextPageFromFullPage(t *testing.T) {
	var slugs []string
	for i := 0; i < 20; i++ {
		slugs = append(slugs, fmt.Sprintf("full%02d", i))
	}
	results := searchPage(slugs, "")
	f := routedFetcher(results, func(slug string) ([]byte, failure.ClassifiedError) {
		return detailPage(slug), nil
	})

	so := newOrchestrator(f)
	result, err := so.Search(context.Background(), "cat", 1)

	require.Nil(t, err)
	assert.True(t, result.HasNextPage, "a full results page implies more pages")
}

func TestSearch_NoNextPageOnSparseResults(t *testing.T) {
	results := searchPage([]string{"only-one"}, "")
	f := routedFetcher(results, func(slug string) ([]byte, failure.ClassifiedError) {
		return detailPage(slug), nil
	})

	so := newOrchestrator(f)
	result, err := so.Search(context.Background(), "rare", 1)

	require.Nil(t, err)
	assert.False(t, result.HasNextPage)
}

func TestNextPage(t *testing.T) {
	var requestedPage string
	results := searchPage([]string{"a"}, "")
	f := &fakeFetcher{
		respond: func(u url.URL) ([]byte, failure.ClassifiedError) {
			if strings.Contains(u.Path, "memesearch") {
				requestedPage = u.Query().Get("page")
				return results, nil
			}
			return detailPage("a"), nil
		},
	}

	so := newOrchestrator(f)
	result, err := so.NextPage(context.Background(), "cat", 1)

	require.Nil(t, err)
	assert.Equal(t, "2", requestedPage)
	assert.Equal(t, 2, result.Page)
}
