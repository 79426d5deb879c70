package log

// NoopProgress implements ports.ProgressSink by ignoring all updates.
type NoopProgress struct{}

// NewNoopProgress creates a new no-op progress sink.
func NewNoopProgress() *NoopProgress {
	return &NoopProgress{}
}

// Start ignores the estimate.
func (NoopProgress) Start(estimatedTotal int) {}

// Progress ignores the update.
func (NoopProgress) Progress(current int) {}

// Finish does nothing.
func (NoopProgress) Finish() {}
