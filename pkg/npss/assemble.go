package npss

import (
	"github.com/bft-labs/npss/internal/aggregate"
	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/pkg/log"
)

// Snapshot aggregates samples startIndex through endIndex inclusive.
//
// When the whole file has been read through the cursor starting at sample 0
// and the full range is requested, the incrementally built aggregate is
// finalized and handed over; this can happen once. Every other request
// rescans the range over an independent stream.
func (s *SampledCPUSnapshot) Snapshot(startIndex, endIndex int) (*LoadedSnapshot, error) {
	if err := s.checkRange("snapshot", startIndex); err != nil {
		return nil, err
	}
	if err := s.checkRange("snapshot", endIndex); err != nil {
		return nil, err
	}
	if endIndex < startIndex {
		return nil, &domain.UsageError{Op: "snapshot", Current: startIndex, Requested: endIndex, Count: s.count}
	}

	c := &s.cursor
	if c.builder != nil && c.builderFrom == 0 && c.stream == nil && c.state == stateExhausted &&
		startIndex == 0 && endIndex == s.count-1 {
		builder := c.builder
		c.builder = nil
		cpu, err := builder.Finalize(c.startTime)
		if err != nil {
			return nil, domain.WrapIO("finalize snapshot", err)
		}
		s.opts.logger.Info("assembled snapshot",
			log.Bool("fast_path", true),
			log.Int("samples", cpu.SampleCount))
		return newLoadedSnapshot(cpu), nil
	}

	cpu, err := s.rescan(startIndex, endIndex)
	if err != nil {
		return nil, err
	}
	s.opts.logger.Info("assembled snapshot",
		log.Bool("fast_path", false),
		log.Int("start", startIndex),
		log.Int("end", endIndex),
		log.Int("samples", cpu.SampleCount))
	return newLoadedSnapshot(cpu), nil
}

// rescan aggregates [start, end] read from a private stream. The window
// starts at the timestamp of sample start.
func (s *SampledCPUSnapshot) rescan(start, end int) (cpu *aggregate.Snapshot, err error) {
	stream, err := s.seek(start)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeStream(stream, &err)
		if err != nil {
			cpu = nil
		}
	}()

	builder := s.opts.newBuilder()
	var startTime int64
	for i := start; i <= end; i++ {
		sample, err := readNext(stream, i)
		if err != nil {
			return nil, err
		}
		if i == start {
			startTime = sample.Timestamp
		}
		builder.AddSample(sample.Threads, sample.Timestamp)
	}

	cpu, err = builder.Finalize(startTime)
	if err != nil {
		return nil, domain.WrapIO("finalize snapshot", err)
	}
	return cpu, nil
}
