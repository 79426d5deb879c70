// Package npss gives structured access to NPSS files: sequences of periodic
// thread-stack samples recorded by a sampling CPU profiler.
//
// A [SampledCPUSnapshot] owns a forward-only cursor over the file. Reading
// samples in order through [SampledCPUSnapshot.TimestampOf] and
// [SampledCPUSnapshot.MetricOf] also feeds an aggregation builder, so that
// once the whole file has been read the full-range CPU snapshot is available
// without rescanning. Any other range, and any single sample rendered with
// [SampledCPUSnapshot.ThreadDump], is served by opening an independent
// stream over the file.
//
// # Usage
//
//	snap, err := npss.Open("profile.npss", npss.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer snap.Close()
//
//	for i := 0; i < snap.SampleCount(); i++ {
//	    ts, err := snap.TimestampOf(i)
//	    ...
//	}
//	cpu, err := snap.Snapshot(0, snap.SampleCount()-1)
//
// # Concurrency
//
// The cursor methods (TimestampOf, MetricOf, Snapshot, Close) must not be
// called concurrently. ThreadDump, SampleAt and ThreadDumps open private
// streams and may run concurrently with each other and with the cursor.
package npss
