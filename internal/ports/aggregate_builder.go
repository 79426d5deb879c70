package ports

import (
	"github.com/bft-labs/npss/internal/aggregate"
	"github.com/bft-labs/npss/internal/domain"
)

// AggregateBuilder accumulates an ordered sequence of samples.
type AggregateBuilder interface {
	// AddSample feeds the threads of one sample taken at timestamp.
	AddSample(threads []domain.ThreadSnapshot, timestamp int64)

	// Finalize produces the aggregate covering the window starting at
	// startTime. Returns domain.ErrNoData when no sample was added.
	Finalize(startTime int64) (*aggregate.Snapshot, error)
}

// BuilderFactory creates an empty AggregateBuilder.
type BuilderFactory func() AggregateBuilder
