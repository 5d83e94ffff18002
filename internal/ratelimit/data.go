package ratelimit

import "time"

// clientWindow tracks one client's request count inside its current
// fixed window.
type clientWindow struct {
	windowStart time.Time
	count       int
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int

	// RetryAfter is how long until the window resets. Zero when
	// Allowed.
	RetryAfter time.Duration
}

// Stats is a snapshot of limiter occupancy for the stats endpoint.
type Stats struct {
	TrackedClients       int
	TotalRequestsTracked int
}
