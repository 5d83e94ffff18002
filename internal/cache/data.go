package cache

import "time"

// Stats is a snapshot of cache occupancy for the stats endpoint.
type Stats struct {
	TotalEntries   int
	ValidEntries   int
	ExpiredEntries int
	OldestEntryAge time.Duration
	NewestEntryAge time.Duration
}
