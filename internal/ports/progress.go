package ports

// ProgressSink observes a long running scan.
type ProgressSink interface {
	// Start announces the estimated number of work units.
	Start(estimatedTotal int)

	// Progress reports the number of units completed so far.
	Progress(current int)

	// Finish signals completion. Called exactly once after Start.
	Finish()
}
