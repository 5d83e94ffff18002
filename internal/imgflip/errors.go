package imgflip

import (
	"fmt"

	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/failure"
)

type APIErrorCause string

const (
	ErrCauseRequestFailed   = "request failed"
	ErrCauseBadStatus       = "unexpected status"
	ErrCauseMalformedBody   = "malformed response body"
	ErrCauseUpstreamRefused = "upstream reported failure"
)

// APIError classifies a failed call to the official API. Callers treat
// every cause the same way, by falling back to scraping, so Retryable
// only matters for logging.
type APIError struct {
	Message   string
	Retryable bool
	Cause     APIErrorCause
}

func (e *APIError) Error() string {
	return fmt.Sprintf("imgflip api error: %s", e.Cause)
}

func (e *APIError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapAPIErrorToMetadataCause(err *APIError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseRequestFailed:
		return metadata.CauseNetworkFailure
	case ErrCauseBadStatus:
		return metadata.CauseUpstreamStatus
	case ErrCauseMalformedBody, ErrCauseUpstreamRefused:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
