// Package aggregate turns an ordered sequence of thread samples into a
// per-thread call tree.
//
// Each sample charges the time elapsed since the previous sample to the
// stack of every RUNNABLE thread: every node on the path gets the interval
// added to its total time and the innermost frame also to its self time.
// Every thread observation, whatever its state, counts one sample along its
// path.
package aggregate
