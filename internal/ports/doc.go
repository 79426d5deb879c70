// Package ports defines the interfaces that connect the sampled-snapshot core
// to its collaborators.
//
// The core (pkg/npss) depends only on these interfaces. Concrete
// implementations live in internal/codec (sample streams), internal/aggregate
// (aggregation engine) and internal/adapters (files, progress).
//
// # Port Interfaces
//
//   - [SampleStream]: yields decoded samples one at a time in file order
//   - [StreamDecoder]: turns a raw byte stream into a SampleStream
//   - [FileProvider]: yields fresh raw byte streams over one sample file
//   - [ProgressSink]: receives prescan progress
//   - [AggregateBuilder]: accumulates samples into a call-tree snapshot
package ports
