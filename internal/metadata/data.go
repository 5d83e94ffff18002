package metadata

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, metrics, reporting).

Rules:
 - Causes classify what was observed, not what should happen next.
 - No component may read recorded metadata to influence control flow.
 - New causes are appended, never renumbered.
*/
type ErrorCause int

const (
	CauseUnknown ErrorCause = iota
	// Transport-level failure: DNS, connect, timeout, body read.
	CauseNetworkFailure
	// Upstream answered with a non-success HTTP status.
	CauseUpstreamStatus
	// Body present but malformed or implausibly short.
	CauseContentInvalid
	// Extraction cascade exhausted without a usable media URL.
	CauseParseMiss
	// Retry budget exhausted.
	CauseRetryFailure
	// Caller supplied a bad query or page.
	CauseInvalidInput
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseUpstreamStatus:
		return "upstream_status"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseParseMiss:
		return "parse_miss"
	case CauseRetryFailure:
		return "retry_failure"
	case CauseInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Attribute is a single key-value pair attached to a recorded event.
// Values are plain strings; events carry no objects with behavior.
type Attribute struct {
	Key   AttributeKey
	Value string
}

type AttributeKey string

const (
	AttrURL     AttributeKey = "url"
	AttrQuery   AttributeKey = "query"
	AttrClient  AttributeKey = "client"
	AttrMessage AttributeKey = "message"
)

func NewAttr(key AttributeKey, value string) Attribute {
	return Attribute{Key: key, Value: value}
}
