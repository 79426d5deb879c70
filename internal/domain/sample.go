package domain

import (
	"fmt"
	"strconv"
)

// ThreadState is the scheduling state of a thread at sampling time.
type ThreadState uint8

const (
	StateNew ThreadState = iota
	StateRunnable
	StateBlocked
	StateWaiting
	StateTimedWaiting
	StateTerminated
)

var threadStateNames = [...]string{
	StateNew:          "NEW",
	StateRunnable:     "RUNNABLE",
	StateBlocked:      "BLOCKED",
	StateWaiting:      "WAITING",
	StateTimedWaiting: "TIMED_WAITING",
	StateTerminated:   "TERMINATED",
}

// String returns the JVM name of the state, e.g. "TIMED_WAITING".
func (s ThreadState) String() string {
	if int(s) < len(threadStateNames) {
		return threadStateNames[s]
	}
	return "ThreadState(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the known states.
func (s ThreadState) Valid() bool {
	return int(s) < len(threadStateNames)
}

// ParseThreadState is the inverse of ThreadState.String.
func ParseThreadState(name string) (ThreadState, error) {
	for i, n := range threadStateNames {
		if n == name {
			return ThreadState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown thread state %q", name)
}

// LockDescriptor identifies a lock object.
type LockDescriptor struct {
	IdentityHash uint32
	ClassName    string
}

// MonitorDescriptor is a monitor held by a thread. LockedStackDepth is the
// index of the frame that acquired it, or JNILockedDepth when it was taken
// from native code.
type MonitorDescriptor struct {
	LockDescriptor
	LockedStackDepth int
}

// JNILockedDepth is the LockedStackDepth of monitors acquired through JNI.
const JNILockedDepth = -1

// ThreadSnapshot is the state of one thread within a sample.
// StackFrames are ordered top of stack first: index 0 is the executing method.
type ThreadSnapshot struct {
	Name        string
	ID          int64
	State       ThreadState
	StackFrames []Frame

	// LockInfo is the lock the thread is blocked or waiting on, if any.
	LockInfo *LockDescriptor

	// LockOwnerName is empty when the lock has no owner (e.g. parking).
	LockOwnerName string
	LockOwnerID   int64

	LockedMonitors []MonitorDescriptor

	// LockedSynchronizers is nil when the sample did not record
	// synchronizers, and non-nil (possibly empty) when it did.
	LockedSynchronizers []LockDescriptor
}

// HasLockOwner reports whether the lock the thread waits on is owned.
func (t *ThreadSnapshot) HasLockOwner() bool {
	return t.LockOwnerName != ""
}

// ThreadsSample is one decoded record: every thread's state at Timestamp.
type ThreadsSample struct {
	Timestamp int64
	Threads   []ThreadSnapshot
}

// RunnableDepth returns the sum of stack depths of RUNNABLE threads.
func (s *ThreadsSample) RunnableDepth() int64 {
	var n int64
	for i := range s.Threads {
		if s.Threads[i].State == StateRunnable {
			n += int64(len(s.Threads[i].StackFrames))
		}
	}
	return n
}
