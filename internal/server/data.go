package server

// Response sources, in the order the routing prefers them.
const (
	SourceCache           = "cache"
	SourceUpstreamAPI     = "upstream-api"
	SourceScraper         = "scraper"
	SourceScraperFallback = "scraper-fallback"
)

type memeDTO struct {
	Title       string `json:"title"`
	MemeURL     string `json:"memeUrl"`
	TemplateURL string `json:"templateUrl"`
}

type searchResponseDTO struct {
	Success      bool      `json:"success"`
	Data         []memeDTO `json:"data"`
	Source       string    `json:"source"`
	ResponseTime string    `json:"responseTime"`
	Cached       bool      `json:"cached"`
	Query        string    `json:"query"`
	Page         int       `json:"page"`
}

type errorResponseDTO struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type cacheStatsDTO struct {
	TotalEntries   int    `json:"totalEntries"`
	ValidEntries   int    `json:"validEntries"`
	ExpiredEntries int    `json:"expiredEntries"`
	OldestEntryAge string `json:"oldestEntryAge"`
	NewestEntryAge string `json:"newestEntryAge"`
}

type rateLimitStatsDTO struct {
	TrackedClients       int `json:"trackedClients"`
	TotalRequestsTracked int `json:"totalRequestsTracked"`
}

type statsResponseDTO struct {
	Success     bool              `json:"success"`
	Cache       cacheStatsDTO     `json:"cache"`
	RateLimit   rateLimitStatsDTO `json:"rateLimiting"`
	UptimeMs    int64             `json:"uptimeMs"`
	TimestampMs int64             `json:"timestamp"`
}
