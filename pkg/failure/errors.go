package failure

type Severity int

// Control-flow classification: a fatal error aborts the request that
// produced it, a recoverable one is absorbed at the batch level.
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}
