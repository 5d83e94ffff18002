package cmd

import (
	"github.com/memescout/memescout/internal/config"
	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/fetcher"
	"github.com/memescout/memescout/internal/imgflip"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/internal/scraper"
)

// buildOrchestrator assembles the scraping pipeline from leaf to root:
// page fetcher, template extractor, batch fetcher, orchestrator.
func buildOrchestrator(cfg config.Config, sink metadata.Sink) scraper.SearchOrchestrator {
	pageFetcher := fetcher.NewPageFetcher(sink, cfg.Timeout())
	templateExtractor := extractor.NewTemplateExtractor(sink)
	batchFetcher := scraper.NewBatchFetcher(
		&pageFetcher,
		templateExtractor,
		sink,
		cfg.UserAgent(),
		cfg.RetryParam(),
	)
	return scraper.NewSearchOrchestrator(
		&pageFetcher,
		batchFetcher,
		sink,
		cfg.UserAgent(),
		cfg.RetryParam(),
		cfg.ChunkSize(),
		cfg.IncludeNSFW(),
	)
}

func buildAPIClient(cfg config.Config, sink metadata.Sink) imgflip.Client {
	return imgflip.NewClient(sink, cfg.Timeout(), cfg.UserAgent())
}
