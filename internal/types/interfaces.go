// internal/types/interfaces.go
package types

// BatchSink accepts decoded inbound batches from a transport.
type BatchSink interface {
	Enqueue(batch []RawEvent) error
}

// ErrorReporter receives transport-level failures for the operator.
type ErrorReporter interface {
	ReportTransportError(err error)
}
