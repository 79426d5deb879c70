package npss

import (
	"github.com/bft-labs/npss/internal/aggregate"
	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/internal/ports"
)

// Re-exported types so callers outside this module can name them.
type (
	// CPUSnapshot is a finalized call-tree aggregate.
	CPUSnapshot = aggregate.Snapshot

	// Hotspot is one method's aggregated cost.
	Hotspot = aggregate.Hotspot

	// ThreadsSample is one decoded sample.
	ThreadsSample = domain.ThreadsSample

	// ThreadSnapshot is one thread within a sample.
	ThreadSnapshot = domain.ThreadSnapshot

	// Frame is one stack frame.
	Frame = domain.Frame

	// FileProvider yields byte streams over a sample file.
	FileProvider = ports.FileProvider

	// ProgressSink observes prescans.
	ProgressSink = ports.ProgressSink
)

// Errors re-exported for errors.Is checks.
var (
	ErrUsage     = domain.ErrUsage
	ErrIO        = domain.ErrIO
	ErrNoData    = domain.ErrNoData
	ErrBadFormat = domain.ErrBadFormat
)
