package scraper

import (
	"fmt"

	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/failure"
)

type SearchErrorCause string

const (
	// Caller errors, never retried.
	ErrCauseInvalidPage = "page out of range"
	// The results-page fetch failed; without it there is nothing to extract.
	ErrCauseSearchFetchFailed = "search fetch failed"
	// Results page body missing or below the sanity floor.
	ErrCauseSearchPageInvalid = "search page invalid"
)

type SearchError struct {
	Message   string
	Retryable bool
	Cause     SearchErrorCause
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search error: %s", e.Cause)
}

func (e *SearchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsInvalidInput reports whether the error is the caller's fault, for
// mapping to a 4xx at the serving boundary.
func (e *SearchError) IsInvalidInput() bool {
	return e.Cause == ErrCauseInvalidPage
}

// mapSearchErrorToMetadataCause maps orchestrator-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSearchErrorToMetadataCause(err *SearchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidPage:
		return metadata.CauseInvalidInput
	case ErrCauseSearchFetchFailed:
		return metadata.CauseUpstreamStatus
	case ErrCauseSearchPageInvalid:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
