package npss

import (
	"github.com/bft-labs/npss/internal/adapters/log"
	"github.com/bft-labs/npss/internal/aggregate"
	"github.com/bft-labs/npss/internal/codec"
	"github.com/bft-labs/npss/internal/ports"
	pkglog "github.com/bft-labs/npss/pkg/log"
)

// DefaultAverageRecordSize is the assumed encoded size of one sample, used to
// estimate the number of samples in a file for progress reporting.
const DefaultAverageRecordSize = 130

// Option configures optional behavior of a SampledCPUSnapshot.
type Option func(*options)

type options struct {
	logger        pkglog.Logger
	progress      ports.ProgressSink
	decode        ports.StreamDecoder
	newBuilder    ports.BuilderFactory
	avgRecordSize int64
}

func defaultOptions() options {
	return options{
		logger:        pkglog.NewNoopLogger(),
		progress:      log.NewNoopProgress(),
		decode:        codec.Decoder,
		newBuilder:    func() ports.AggregateBuilder { return aggregate.NewBuilder() },
		avgRecordSize: DefaultAverageRecordSize,
	}
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger pkglog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress sets the sink that observes the prescan of files whose
// header does not record the sample count.
func WithProgress(sink ports.ProgressSink) Option {
	return func(o *options) {
		if sink != nil {
			o.progress = sink
		}
	}
}

// WithDecoder replaces the NPSS codec.
func WithDecoder(decode ports.StreamDecoder) Option {
	return func(o *options) {
		if decode != nil {
			o.decode = decode
		}
	}
}

// WithBuilderFactory replaces the aggregation engine.
func WithBuilderFactory(f ports.BuilderFactory) Option {
	return func(o *options) {
		if f != nil {
			o.newBuilder = f
		}
	}
}

// WithAverageRecordSize sets the divisor used to estimate the prescan total.
func WithAverageRecordSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.avgRecordSize = n
		}
	}
}
