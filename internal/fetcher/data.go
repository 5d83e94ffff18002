package fetcher

import (
	"net/url"
)

// HTTP boundary

type FetchParam struct {
	fetchURL  url.URL
	userAgent string
}

func NewFetchParam(fetchURL url.URL, userAgent string) FetchParam {
	return FetchParam{
		fetchURL:  fetchURL,
		userAgent: userAgent,
	}
}

func (f *FetchParam) URL() url.URL {
	return f.fetchURL
}

func (f *FetchParam) UserAgent() string {
	return f.userAgent
}

type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) SizeByte() uint64 {
	return f.meta.transferredSizeByte
}

type ResponseMeta struct {
	statusCode          int
	transferredSizeByte uint64
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
) FetchResult {
	return FetchResult{
		url:  url,
		body: body,
		meta: ResponseMeta{
			statusCode:          statusCode,
			transferredSizeByte: uint64(len(body)),
		},
	}
}
