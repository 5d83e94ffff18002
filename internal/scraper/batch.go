package scraper

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/fetcher"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/retry"
)

/*
Responsibilities
- Partition a link list into fixed-size chunks
- Fetch and extract every chunk concurrently, every link within a chunk
  concurrently
- Isolate per-link failures: a failed link produces no record and never
  aborts its chunk or the batch
- Collect results positionally so output order equals input order
  (chunk order, then within-chunk order) regardless of completion order

Chunks are all dispatched together, so peak fan-out grows with the link
count rather than being capped at one chunk's width. Search pages are
small enough that this has not warranted a global semaphore.

No retry happens at this layer; the fetch primitive retries internally.
*/

// DefaultChunkSize balances parallel throughput against hammering the
// upstream server.
const DefaultChunkSize = 12

type BatchFetcher struct {
	pageFetcher       fetcher.Fetcher
	templateExtractor extractor.TemplateExtractor
	metadataSink      metadata.Sink
	userAgent         string
	retryParam        retry.RetryParam
}

func NewBatchFetcher(
	pageFetcher fetcher.Fetcher,
	templateExtractor extractor.TemplateExtractor,
	metadataSink metadata.Sink,
	userAgent string,
	retryParam retry.RetryParam,
) BatchFetcher {
	return BatchFetcher{
		pageFetcher:       pageFetcher,
		templateExtractor: templateExtractor,
		metadataSink:      metadataSink,
		userAgent:         userAgent,
		retryParam:        retryParam,
	}
}

// Run fetches and extracts every link, returning the surviving records
// in input order. chunkSize <= 0 falls back to DefaultChunkSize.
func (b *BatchFetcher) Run(ctx context.Context, links []string, chunkSize int) []extractor.MemeRecord {
	if len(links) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	chunks := chunkLinks(links, chunkSize)
	chunkResults := make([][]extractor.MemeRecord, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []string) {
			defer wg.Done()
			chunkResults[i] = b.runChunk(ctx, chunk)
		}(i, chunk)
	}
	wg.Wait()

	var records []extractor.MemeRecord
	for _, result := range chunkResults {
		records = append(records, result...)
	}
	return records
}

// runChunk fetches every link in the chunk concurrently, collecting
// results by position. An unexpected panic degrades the whole chunk to
// an empty result.
func (b *BatchFetcher) runChunk(ctx context.Context, chunk []string) (records []extractor.MemeRecord) {
	defer func() {
		if r := recover(); r != nil {
			b.metadataSink.RecordError(
				time.Now(),
				"scraper",
				"BatchFetcher.runChunk",
				metadata.CauseUnknown,
				fmt.Sprintf("chunk panicked: %v", r),
				nil,
			)
			records = nil
		}
	}()

	slots := make([]*extractor.MemeRecord, len(chunk))

	var wg sync.WaitGroup
	for i, link := range chunk {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			if record, ok := b.fetchOne(ctx, link); ok {
				slots[i] = &record
			}
		}(i, link)
	}
	wg.Wait()

	for _, slot := range slots {
		if slot != nil {
			records = append(records, *slot)
		}
	}
	return records
}

// fetchOne resolves a single detail page into a record. Every failure
// mode, including a panic, degrades to "no record produced" for this
// link only.
func (b *BatchFetcher) fetchOne(ctx context.Context, link string) (record extractor.MemeRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.metadataSink.RecordError(
				time.Now(),
				"scraper",
				"BatchFetcher.fetchOne",
				metadata.CauseUnknown,
				fmt.Sprintf("link panicked: %v", r),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, link),
				},
			)
			ok = false
		}
	}()

	parsed, err := url.Parse(link)
	if err != nil {
		return extractor.MemeRecord{}, false
	}

	result, fetchErr := b.pageFetcher.Fetch(
		ctx,
		fetcher.NewFetchParam(*parsed, b.userAgent),
		b.retryParam,
	)
	if fetchErr != nil {
		// Already recorded by the fetcher. Absorb it here.
		return extractor.MemeRecord{}, false
	}

	record, extractErr := b.templateExtractor.Extract(link, result.Body())
	if extractErr != nil {
		return extractor.MemeRecord{}, false
	}

	return record, true
}

// chunkLinks partitions links into consecutive chunks of size. The last
// chunk may be shorter.
func chunkLinks(links []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(links); start += size {
		end := start + size
		if end > len(links) {
			end = len(links)
		}
		chunks = append(chunks, links[start:end])
	}
	return chunks
}
