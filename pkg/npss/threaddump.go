package npss

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/npss/internal/domain"
)

// StackFrameURLPrefix starts every stack frame link in a thread dump. The
// rest of the URL is "class|method|line".
const StackFrameURLPrefix = "file:/stackframe/"

// SampleAt reads sample index over an independent stream. It never moves the
// cursor.
func (s *SampledCPUSnapshot) SampleAt(index int) (sample *domain.ThreadsSample, err error) {
	if index < 0 || index >= s.count {
		return nil, &domain.UsageError{Op: "sample", Current: -1, Requested: index, Count: s.count}
	}
	stream, err := s.seek(index)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeStream(stream, &err)
		if err != nil {
			sample = nil
		}
	}()
	return readNext(stream, index)
}

// ThreadDump renders the threads of sample index as HTML-safe markup with
// lock annotations and stack frame links.
func (s *SampledCPUSnapshot) ThreadDump(index int) (string, error) {
	sample, err := s.SampleAt(index)
	if err != nil {
		return "", err
	}
	return FormatThreadDump(sample.Threads), nil
}

// ThreadDumps renders several samples, at most limit at a time. The result
// is in the order of indices.
func (s *SampledCPUSnapshot) ThreadDumps(ctx context.Context, indices []int, limit int) ([]string, error) {
	out := make([]string, len(indices))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, idx := range indices {
		i, idx := i, idx
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dump, err := s.ThreadDump(idx)
			if err != nil {
				return err
			}
			out[i] = dump
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FormatThreadDump renders threads the way a JVM thread dump reads, as markup.
func FormatThreadDump(threads []domain.ThreadSnapshot) string {
	var sb strings.Builder
	sb.Grow(4096)
	sb.WriteString("<pre>")
	for i := range threads {
		writeThread(&sb, &threads[i])
	}
	sb.WriteString("</pre>")
	return sb.String()
}

func writeThread(sb *strings.Builder, t *domain.ThreadSnapshot) {
	sb.WriteString("&nbsp;<b>\"")
	sb.WriteString(escapeMarkup(t.Name))
	sb.WriteString("\" - Thread t@")
	sb.WriteString(strconv.FormatInt(t.ID, 10))
	sb.WriteString("<br>    java.lang.Thread.State: ")
	sb.WriteString(t.State.String())
	sb.WriteString("</b><br>")

	for i, f := range t.StackFrames {
		sb.WriteString("\tat <a href=\"")
		sb.WriteString(escapeMarkup(FrameURL(f)))
		sb.WriteString("\">")
		sb.WriteString(escapeMarkup(f.String()))
		sb.WriteString("</a><br>")
		if i == 0 {
			writeLockAnnotation(sb, t, f)
		}
		writeMonitors(sb, t, func(depth int) bool { return depth == i })
	}

	var jni strings.Builder
	writeMonitors(&jni, t, func(depth int) bool { return depth < 0 || depth >= len(t.StackFrames) })
	if jni.Len() > 0 {
		sb.WriteString("   JNI locked monitors:<br>")
		sb.WriteString(jni.String())
	}

	if t.LockedSynchronizers != nil {
		sb.WriteString("<br>   Locked ownable synchronizers:")
		if len(t.LockedSynchronizers) == 0 {
			sb.WriteString("<br>\t- None\n")
		}
		for _, l := range t.LockedSynchronizers {
			sb.WriteString("<br>\t- locked ")
			writeLock(sb, l)
			sb.WriteString("<br>")
		}
	}
	sb.WriteString("<br>")
}

// writeLockAnnotation explains what the thread blocks on, below its top frame.
func writeLockAnnotation(sb *strings.Builder, t *domain.ThreadSnapshot, top domain.Frame) {
	lock := t.LockInfo
	switch {
	case top.Is("java.lang.Object", "wait"):
		if lock != nil {
			sb.WriteString("\t- waiting on ")
			writeLock(sb, *lock)
			sb.WriteString("<br>")
		}
	case lock == nil:
	case !t.HasLockOwner():
		sb.WriteString("\t- parking to wait for ")
		writeLock(sb, *lock)
		sb.WriteString("<br>")
	default:
		sb.WriteString("\t- waiting to lock ")
		writeLock(sb, *lock)
		sb.WriteString(" owned by \"")
		sb.WriteString(escapeMarkup(t.LockOwnerName))
		sb.WriteString("\" t@")
		sb.WriteString(strconv.FormatInt(t.LockOwnerID, 10))
		sb.WriteString("<br>")
	}
}

func writeMonitors(sb *strings.Builder, t *domain.ThreadSnapshot, match func(depth int) bool) {
	for _, m := range t.LockedMonitors {
		if match(m.LockedStackDepth) {
			sb.WriteString("\t- locked ")
			writeLock(sb, m.LockDescriptor)
			sb.WriteString("<br>")
		}
	}
}

func writeLock(sb *strings.Builder, l domain.LockDescriptor) {
	sb.WriteString("&lt;")
	sb.WriteString(strconv.FormatUint(uint64(l.IdentityHash), 16))
	sb.WriteString("&gt; (a ")
	sb.WriteString(escapeMarkup(l.ClassName))
	sb.WriteString(")")
}

// FrameURL returns the navigation link of a frame.
func FrameURL(f domain.Frame) string {
	return StackFrameURLPrefix + f.ClassName + "|" + f.MethodName + "|" + strconv.Itoa(f.LineNumber)
}

// ParseFrameURL is the inverse of FrameURL. It accepts the href as it
// appears in ThreadDump markup, with &lt; and &gt; still encoded.
func ParseFrameURL(url string) (className, methodName string, line int, ok bool) {
	rest, found := strings.CutPrefix(markupUnescaper.Replace(url), StackFrameURLPrefix)
	if !found {
		return "", "", 0, false
	}
	parts := strings.Split(rest, "|")
	if len(parts) != 3 {
		return "", "", 0, false
	}
	line, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, false
	}
	return parts[0], parts[1], line, true
}

var (
	markupEscaper   = strings.NewReplacer("<", "&lt;", ">", "&gt;")
	markupUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">")
)

func escapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}
