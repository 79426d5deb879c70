package npss

import (
	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/internal/ports"
	"github.com/bft-labs/npss/pkg/log"
)

// cursorState is the lifecycle of the primary stream.
//
//	from        request           to
//	Unstarted   read(0)           Reading(0), or Exhausted when count == 1
//	Reading(i)  read(i)           Reading(i), no I/O
//	Reading(i)  read(i+1)         Reading(i+1), or Exhausted when i+1 == count-1
//	Exhausted   read(count-1)     Exhausted, no I/O
//	any         read error        Failed
//	any         Close             Closed
//
// Every other request is a usage error and leaves the cursor unchanged.
type cursorState int

const (
	stateUnstarted cursorState = iota
	stateReading
	stateExhausted
	stateFailed
	stateClosed
)

func (s cursorState) String() string {
	switch s {
	case stateUnstarted:
		return "unstarted"
	case stateReading:
		return "reading"
	case stateExhausted:
		return "exhausted"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

type cursor struct {
	state  cursorState
	index  int
	sample *domain.ThreadsSample
	stream ports.SampleStream
	err    error

	// builder is fed every sample read after the window started. It is
	// owned by the cursor until the fast path takes it.
	builder       ports.AggregateBuilder
	builderFrom   int
	windowStarted bool
	startTime     int64
}

func newCursor() cursor {
	return cursor{index: -1, builderFrom: -1}
}

// close releases the primary stream and moves to the given terminal state.
func (c *cursor) close(logger log.Logger, to cursorState) error {
	if c.state != stateExhausted && c.state != stateFailed {
		c.state = to
	}
	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	logger.Debug("closed primary stream", log.Int("index", c.index), log.String("state", c.state.String()))
	return domain.WrapIO("close stream", err)
}

// advance makes the cursor hold sample i, reading at most one sample.
func (s *SampledCPUSnapshot) advance(op string, i int) error {
	c := &s.cursor
	if err := s.checkRange(op, i); err != nil {
		return err
	}
	if i == c.index && c.sample != nil {
		return nil
	}
	if i != c.index+1 {
		return &domain.UsageError{Op: op, Current: c.index, Requested: i, Count: s.count}
	}
	if c.state == stateFailed {
		return c.err
	}
	if c.stream == nil {
		return &domain.UsageError{Op: op, Current: c.index, Requested: i, Count: s.count}
	}

	sample, err := readNext(c.stream, i)
	if err != nil {
		c.err = err
		c.state = stateFailed
		c.stream.Close()
		c.stream = nil
		s.opts.logger.Error("primary stream failed", log.Int("index", i), log.Err(err))
		return err
	}

	c.index = i
	c.sample = sample
	c.state = stateReading
	if c.builder != nil {
		c.builder.AddSample(sample.Threads, sample.Timestamp)
	}
	if i == s.count-1 {
		c.state = stateExhausted
		return c.close(s.opts.logger, stateExhausted)
	}
	return nil
}

// startWindow starts incremental aggregation at the held sample. Only the
// first call has an effect.
func (s *SampledCPUSnapshot) startWindow() {
	c := &s.cursor
	if c.windowStarted || c.sample == nil {
		return
	}
	c.windowStarted = true
	c.startTime = c.sample.Timestamp
	c.builder = s.opts.newBuilder()
	c.builderFrom = c.index
	c.builder.AddSample(c.sample.Threads, c.sample.Timestamp)
	s.opts.logger.Debug("aggregation window started", log.Int("index", c.index), log.Int64("start_time", c.startTime))
}

// TimestampOf returns the timestamp of sample i. The first call also starts
// incremental aggregation at that sample.
//
// The last sample's timestamp is served from the file summary. When the
// cursor is right before it the final record is still read so the
// incremental aggregate covers the whole file; otherwise no I/O happens.
func (s *SampledCPUSnapshot) TimestampOf(i int) (int64, error) {
	if i == s.count-1 && i >= 0 {
		if s.cursor.index == i-1 && s.cursor.stream != nil {
			if err := s.advance("timestamp", i); err != nil {
				return 0, err
			}
			s.startWindow()
		}
		return s.lastTimestamp, nil
	}
	if err := s.advance("timestamp", i); err != nil {
		return 0, err
	}
	s.startWindow()
	return s.cursor.sample.Timestamp, nil
}

// MetricOf returns the activity metric of sample i: the total stack depth of
// all RUNNABLE threads. metricIndex selects among derived metrics; only one
// is defined and every index yields it.
func (s *SampledCPUSnapshot) MetricOf(i int, metricIndex int) (int64, error) {
	if err := s.advance("metric", i); err != nil {
		return 0, err
	}
	return s.cursor.sample.RunnableDepth(), nil
}
