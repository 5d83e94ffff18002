package scraper

import (
	"github.com/memescout/memescout/internal/extractor"
)

// SearchResultSet is the aggregated outcome of one orchestrated search.
// TotalFound equals len(Records); no upstream total is authoritative.
type SearchResultSet struct {
	Records     []extractor.MemeRecord
	Page        int
	HasNextPage bool
	TotalFound  int
}
