package npss

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/npss/internal/domain"
)

func TestFormatThreadDumpWaitingOn(t *testing.T) {
	samples := makeSamples(1)
	got := FormatThreadDump(samples[0].Threads[1:])

	want := "<pre>" +
		"&nbsp;<b>\"idle\" - Thread t@2<br>    java.lang.Thread.State: WAITING</b><br>" +
		"\tat <a href=\"file:/stackframe/java.lang.Object|wait|-2\">java.lang.Object.wait(Native Method)</a><br>" +
		"\t- waiting on &lt;abc&gt; (a app.Pool)<br>" +
		"\tat <a href=\"file:/stackframe/app.Pool|take|5\">app.Pool.take(Src.java:5)</a><br>" +
		"<br></pre>"
	require.Equal(t, want, got)
}

func TestFormatThreadDumpLocks(t *testing.T) {
	park := frame("jdk.internal.misc.Unsafe", "park", domain.LineNative)
	tests := []struct {
		name    string
		thread  domain.ThreadSnapshot
		want    []string
		notWant []string
	}{
		{
			name: "parking without owner",
			thread: domain.ThreadSnapshot{
				Name: "parked", ID: 3, State: domain.StateWaiting,
				StackFrames: []domain.Frame{park},
				LockInfo:    &domain.LockDescriptor{IdentityHash: 0x1f, ClassName: "java.util.concurrent.locks.ReentrantLock$NonfairSync"},
			},
			want:    []string{"\t- parking to wait for &lt;1f&gt; (a java.util.concurrent.locks.ReentrantLock$NonfairSync)<br>"},
			notWant: []string{"owned by", "Locked ownable synchronizers"},
		},
		{
			name: "blocked on owned monitor",
			thread: domain.ThreadSnapshot{
				Name: "blocked", ID: 4, State: domain.StateBlocked,
				StackFrames:   []domain.Frame{frame("app.Cache", "put", 40)},
				LockInfo:      &domain.LockDescriptor{IdentityHash: 0x10, ClassName: "app.Cache"},
				LockOwnerName: "holder",
				LockOwnerID:   7,
			},
			want: []string{"\t- waiting to lock &lt;10&gt; (a app.Cache) owned by \"holder\" t@7<br>"},
		},
		{
			name: "wait without lock info",
			thread: domain.ThreadSnapshot{
				Name: "w", ID: 5, State: domain.StateWaiting,
				StackFrames: []domain.Frame{frame("java.lang.Object", "wait", domain.LineNative)},
			},
			notWant: []string{"waiting on", "parking", "waiting to lock"},
		},
		{
			name: "locked monitors by depth and from JNI",
			thread: domain.ThreadSnapshot{
				Name: "holder", ID: 7, State: domain.StateRunnable,
				StackFrames: []domain.Frame{frame("app.Cache", "evict", 50), frame("app.Cache", "put", 41)},
				LockedMonitors: []domain.MonitorDescriptor{
					{LockDescriptor: domain.LockDescriptor{IdentityHash: 0x10, ClassName: "app.Cache"}, LockedStackDepth: 1},
					{LockDescriptor: domain.LockDescriptor{IdentityHash: 0x20, ClassName: "app.Native"}, LockedStackDepth: domain.JNILockedDepth},
				},
			},
			want: []string{
				"app.Cache.put(Src.java:41)</a><br>\t- locked &lt;10&gt; (a app.Cache)<br>",
				"   JNI locked monitors:<br>\t- locked &lt;20&gt; (a app.Native)<br>",
			},
		},
		{
			name: "no ownable synchronizers",
			thread: domain.ThreadSnapshot{
				Name: "free", ID: 8, State: domain.StateRunnable,
				StackFrames:         []domain.Frame{frame("app.Main", "main", 1)},
				LockedSynchronizers: []domain.LockDescriptor{},
			},
			want:    []string{"<br>   Locked ownable synchronizers:<br>\t- None\n"},
			notWant: []string{"JNI locked monitors"},
		},
		{
			name: "ownable synchronizers listed",
			thread: domain.ThreadSnapshot{
				Name: "owner", ID: 9, State: domain.StateRunnable,
				StackFrames:         []domain.Frame{frame("app.Main", "main", 1)},
				LockedSynchronizers: []domain.LockDescriptor{{IdentityHash: 0xff, ClassName: "java.util.concurrent.locks.ReentrantLock$NonfairSync"}},
			},
			want:    []string{"<br>   Locked ownable synchronizers:<br>\t- locked &lt;ff&gt; (a java.util.concurrent.locks.ReentrantLock$NonfairSync)<br>"},
			notWant: []string{"- None"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatThreadDump([]domain.ThreadSnapshot{tt.thread})
			for _, w := range tt.want {
				require.Contains(t, got, w)
			}
			for _, w := range tt.notWant {
				require.NotContains(t, got, w)
			}
		})
	}
}

func TestFormatThreadDumpEscapes(t *testing.T) {
	ctor := domain.Frame{ClassName: "app.Box", MethodName: "<init>", FileName: "Box.java", LineNumber: 3}
	got := FormatThreadDump([]domain.ThreadSnapshot{{
		Name: "<main>", ID: 1, State: domain.StateRunnable, StackFrames: []domain.Frame{ctor},
	}})
	require.NotContains(t, got, "<init>")
	require.NotContains(t, got, "<main>")
	require.Contains(t, got, "\"&lt;main&gt;\"")
	require.Contains(t, got, "href=\"file:/stackframe/app.Box|&lt;init&gt;|3\"")
	require.Contains(t, got, ">app.Box.&lt;init&gt;(Box.java:3)</a>")
}

func TestParseFrameURL(t *testing.T) {
	f := frame("app.Worker", "step", 42)
	class, method, line, ok := ParseFrameURL(FrameURL(f))
	require.True(t, ok)
	require.Equal(t, "app.Worker", class)
	require.Equal(t, "step", method)
	require.Equal(t, 42, line)

	// Hrefs taken from the markup carry encoded brackets.
	class, method, line, ok = ParseFrameURL("file:/stackframe/app.Box|&lt;init&gt;|3")
	require.True(t, ok)
	require.Equal(t, "app.Box", class)
	require.Equal(t, "<init>", method)
	require.Equal(t, 3, line)

	for _, bad := range []string{"", "http://x", StackFrameURLPrefix + "a|b", StackFrameURLPrefix + "a|b|c"} {
		_, _, _, ok := ParseFrameURL(bad)
		require.False(t, ok, bad)
	}
}

func TestThreadDumpIsIndependent(t *testing.T) {
	samples := makeSamples(100, 200, 300)
	snap, stats := openCounted(t, writeSamples(t, samples))

	for i := 0; i < 2; i++ {
		_, err := snap.TimestampOf(i)
		require.NoError(t, err)
	}
	_, _, readsBefore := stats.snapshotCounts()

	dump, err := snap.ThreadDump(0)
	require.NoError(t, err)
	require.Equal(t, FormatThreadDump(samples[0].Threads), dump)

	require.Equal(t, 1, snap.CurrentIndex())
	require.Equal(t, int64(200), snap.Current().Timestamp)
	require.True(t, snap.PrimaryStreamOpen())

	opened, closed, reads := stats.snapshotCounts()
	require.Equal(t, 2, opened)
	require.Equal(t, 1, closed)
	require.Equal(t, readsBefore+1, reads)

	// The cursor continues where it was.
	ts, err := snap.TimestampOf(2)
	require.NoError(t, err)
	require.Equal(t, int64(300), ts)

	_, err = snap.ThreadDump(3)
	require.ErrorIs(t, err, domain.ErrUsage)
}

func TestThreadDumpsKeepOrder(t *testing.T) {
	samples := makeSamples(1, 2, 3, 4)
	snap, stats := openCounted(t, writeSamples(t, samples))

	indices := []int{3, 0, 2, 1, 0}
	dumps, err := snap.ThreadDumps(context.Background(), indices, 2)
	require.NoError(t, err)
	require.Len(t, dumps, len(indices))
	for i, idx := range indices {
		require.Equal(t, FormatThreadDump(samples[idx].Threads), dumps[i])
		require.Equal(t, idx+1, strings.Count(dumps[i], "app.Worker|step")+1)
	}

	opened, closed, _ := stats.snapshotCounts()
	require.Equal(t, 1+len(indices), opened)
	require.Equal(t, len(indices), closed)

	_, err = snap.ThreadDumps(context.Background(), []int{0, 9}, 2)
	require.ErrorIs(t, err, domain.ErrUsage)
}
