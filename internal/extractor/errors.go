package extractor

import (
	"fmt"

	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/failure"
)

type ExtractionErrorCause string

const (
	// Body missing or below the sanity floor: a malformed or blocked
	// fetch, not a page without a template.
	ErrCauseBodyTooShort = "body too short"
	ErrCauseNotHTML      = "not HTML"
	// Cascade exhausted, or the winning URL failed validation.
	ErrCauseNoTemplate = "no usable template media"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsParseMiss reports whether the error means "page had no usable
// template" as opposed to a malformed fetch. Parse misses discard the
// record silently; malformed fetches are recorded as errors.
func (e *ExtractionError) IsParseMiss() bool {
	return e.Cause == ErrCauseNoTemplate
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseBodyTooShort, ErrCauseNotHTML:
		return metadata.CauseContentInvalid
	case ErrCauseNoTemplate:
		return metadata.CauseParseMiss
	default:
		return metadata.CauseUnknown
	}
}
