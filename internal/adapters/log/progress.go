package log

import (
	"time"

	"github.com/bft-labs/npss/pkg/log"
)

// ProgressLogger implements ports.ProgressSink by logging a line each time
// another Step percent of the estimated total has been reached.
type ProgressLogger struct {
	logger log.Logger
	task   string
	step   int

	total    int
	nextPct  int
	started  time.Time
	finished bool
}

// NewProgressLogger creates a sink for the named task. step is the percentage
// between two log lines; values outside 1..100 default to 10.
func NewProgressLogger(logger log.Logger, task string, step int) *ProgressLogger {
	if step <= 0 || step > 100 {
		step = 10
	}
	return &ProgressLogger{logger: logger, task: task, step: step}
}

// Start records the estimate and logs the beginning of the task.
func (p *ProgressLogger) Start(estimatedTotal int) {
	p.total = estimatedTotal
	p.nextPct = p.step
	p.started = time.Now()
	p.finished = false
	p.logger.Info(p.task, log.String("phase", "start"), log.Int("estimated_total", estimatedTotal))
}

// Progress logs when current crosses the next step of the estimate.
func (p *ProgressLogger) Progress(current int) {
	if p.total <= 0 || p.nextPct > 100 {
		return
	}
	pct := current * 100 / p.total
	if pct < p.nextPct {
		return
	}
	for p.nextPct <= pct {
		p.nextPct += p.step
	}
	p.logger.Debug(p.task, log.String("phase", "progress"), log.Int("current", current), log.Int("percent", pct))
}

// Finish logs the elapsed time. Only the first call logs.
func (p *ProgressLogger) Finish() {
	if p.finished {
		return
	}
	p.finished = true
	p.logger.Info(p.task, log.String("phase", "finish"), log.Duration("elapsed", time.Since(p.started)))
}
