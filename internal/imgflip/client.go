// Package imgflip talks to the official imgflip API. Only the public
// get_memes endpoint is used; it serves the popular-memes fast path so
// the scraper is reserved for real searches.
package imgflip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/failure"
	"github.com/memescout/memescout/pkg/urlutil"
)

const defaultEndpoint = "https://api.imgflip.com/get_memes"

// maxBodyBytes bounds how much of the API response we are willing to
// read. The real payload is ~20 KB.
const maxBodyBytes = 4 << 20

const titleMaxLen = 100

type Client struct {
	httpClient   *http.Client
	metadataSink metadata.Sink
	userAgent    string
	endpoint     string
}

func NewClient(metadataSink metadata.Sink, timeout time.Duration, userAgent string) Client {
	return Client{
		httpClient:   &http.Client{Timeout: timeout},
		metadataSink: metadataSink,
		userAgent:    userAgent,
		endpoint:     defaultEndpoint,
	}
}

// NewClientWithEndpoint is NewClient pointed at a non-default endpoint,
// for tests.
func NewClientWithEndpoint(metadataSink metadata.Sink, timeout time.Duration, userAgent string, endpoint string) Client {
	c := NewClient(metadataSink, timeout, userAgent)
	c.endpoint = endpoint
	return c
}

// PopularMemes fetches the API's popular-meme list mapped into the same
// record shape the scraper produces. Entries whose template URL fails
// validation are dropped rather than failing the call.
func (c *Client) PopularMemes(ctx context.Context) ([]extractor.MemeRecord, failure.ClassifiedError) {
	startTime := time.Now()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, c.recordAPIError(&APIError{
			Message:   fmt.Sprintf("building request for %s: %v", c.endpoint, err),
			Retryable: false,
			Cause:     ErrCauseRequestFailed,
		})
	}
	request.Header.Set("User-Agent", c.userAgent)
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, c.recordAPIError(&APIError{
			Message:   fmt.Sprintf("calling %s: %v", c.endpoint, err),
			Retryable: true,
			Cause:     ErrCauseRequestFailed,
		})
	}
	defer response.Body.Close()

	c.metadataSink.RecordFetch(c.endpoint, response.StatusCode, time.Since(startTime), 0)

	if response.StatusCode != http.StatusOK {
		return nil, c.recordAPIError(&APIError{
			Message:   fmt.Sprintf("%s returned status %d", c.endpoint, response.StatusCode),
			Retryable: response.StatusCode >= 500,
			Cause:     ErrCauseBadStatus,
		})
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, c.recordAPIError(&APIError{
			Message:   fmt.Sprintf("reading %s response: %v", c.endpoint, err),
			Retryable: true,
			Cause:     ErrCauseRequestFailed,
		})
	}

	var payload getMemesDTO
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, c.recordAPIError(&APIError{
			Message:   fmt.Sprintf("decoding %s response: %v", c.endpoint, err),
			Retryable: false,
			Cause:     ErrCauseMalformedBody,
		})
	}
	if !payload.Success {
		return nil, c.recordAPIError(&APIError{
			Message:   fmt.Sprintf("%s reported failure: %s", c.endpoint, payload.ErrorMessage),
			Retryable: false,
			Cause:     ErrCauseUpstreamRefused,
		})
	}

	return mapMemes(payload.Data.Memes), nil
}

func mapMemes(memes []memeDTO) []extractor.MemeRecord {
	records := make([]extractor.MemeRecord, 0, len(memes))
	for _, meme := range memes {
		templateURL := urlutil.NormalizeMediaURL(meme.URL)
		if !urlutil.IsValidMediaURL(templateURL) {
			continue
		}
		records = append(records, extractor.MemeRecord{
			Title:   apiTitle(meme.Name),
			MemeURL: urlutil.SiteRoot + "/meme/" + meme.ID,
			Template: extractor.TemplateMedia{
				URL:  templateURL,
				Kind: mediaKindOf(templateURL),
			},
		})
	}
	return records
}

func apiTitle(name string) string {
	runes := []rune(name)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen])
	}
	return name
}

func mediaKindOf(mediaURL string) extractor.MediaKind {
	if urlutil.HasVideoExtension(mediaURL) {
		return extractor.MediaKindVideo
	}
	return extractor.MediaKindImage
}

func (c *Client) recordAPIError(err *APIError) failure.ClassifiedError {
	c.metadataSink.RecordError(
		time.Now(),
		"imgflip",
		"Client.PopularMemes",
		mapAPIErrorToMetadataCause(err),
		err.Message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, c.endpoint),
		},
	)
	return err
}
