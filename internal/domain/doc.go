// Package domain contains the value types read from NPSS sample files and the
// error taxonomy shared by the reader, the aggregation engine and the CLI.
//
// This package has no dependencies on infrastructure concerns (codec, file
// system, logging). Types here are populated by the codec from decoded
// records and are treated as immutable once a sample has been read.
//
// # Entities
//
//   - [ThreadsSample]: all thread stacks captured at one instant
//   - [ThreadSnapshot]: one thread's name, id, state, stack and lock data
//   - [Frame]: a single stack frame (class, method, file, line)
//   - [LockDescriptor] and [MonitorDescriptor]: lock identity as seen by a thread
//
// # Errors
//
// [ErrUsage] and [ErrIO] partition every failure the core can report.
// Use errors.Is against the sentinels; [UsageError] and [IOError] carry details.
package domain
