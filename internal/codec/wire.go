package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bft-labs/npss/internal/domain"
)

// Field numbers of the record messages.
const (
	sampleTimestamp protowire.Number = 1
	sampleThread    protowire.Number = 2

	threadName          protowire.Number = 1
	threadID            protowire.Number = 2
	threadState         protowire.Number = 3
	threadFrame         protowire.Number = 4
	threadLockInfo      protowire.Number = 5
	threadLockOwnerName protowire.Number = 6
	threadLockOwnerID   protowire.Number = 7
	threadMonitor       protowire.Number = 8
	threadHasSyncs      protowire.Number = 9
	threadSynchronizer  protowire.Number = 10

	frameClass  protowire.Number = 1
	frameMethod protowire.Number = 2
	frameFile   protowire.Number = 3
	frameLine   protowire.Number = 4

	lockHash  protowire.Number = 1
	lockClass protowire.Number = 2
	lockDepth protowire.Number = 3
)

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSintField(b []byte, num protowire.Number, v int64) []byte {
	return appendVarintField(b, num, protowire.EncodeZigZag(v))
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessageField(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendSample(b []byte, s *domain.ThreadsSample) []byte {
	b = appendSintField(b, sampleTimestamp, s.Timestamp)
	for i := range s.Threads {
		b = appendMessageField(b, sampleThread, appendThread(nil, &s.Threads[i]))
	}
	return b
}

func appendThread(b []byte, t *domain.ThreadSnapshot) []byte {
	b = appendStringField(b, threadName, t.Name)
	b = appendSintField(b, threadID, t.ID)
	b = appendVarintField(b, threadState, uint64(t.State))
	for _, f := range t.StackFrames {
		b = appendMessageField(b, threadFrame, appendFrame(nil, f))
	}
	if t.LockInfo != nil {
		b = appendMessageField(b, threadLockInfo, appendLock(nil, *t.LockInfo))
	}
	if t.LockOwnerName != "" {
		b = appendStringField(b, threadLockOwnerName, t.LockOwnerName)
		b = appendSintField(b, threadLockOwnerID, t.LockOwnerID)
	}
	for _, m := range t.LockedMonitors {
		msg := appendLock(nil, m.LockDescriptor)
		msg = appendSintField(msg, lockDepth, int64(m.LockedStackDepth))
		b = appendMessageField(b, threadMonitor, msg)
	}
	if t.LockedSynchronizers != nil {
		b = appendVarintField(b, threadHasSyncs, 1)
		for _, l := range t.LockedSynchronizers {
			b = appendMessageField(b, threadSynchronizer, appendLock(nil, l))
		}
	}
	return b
}

func appendFrame(b []byte, f domain.Frame) []byte {
	b = appendStringField(b, frameClass, f.ClassName)
	b = appendStringField(b, frameMethod, f.MethodName)
	if f.FileName != "" {
		b = appendStringField(b, frameFile, f.FileName)
	}
	return appendSintField(b, frameLine, int64(f.LineNumber))
}

func appendLock(b []byte, l domain.LockDescriptor) []byte {
	b = appendVarintField(b, lockHash, uint64(l.IdentityHash))
	return appendStringField(b, lockClass, l.ClassName)
}

// fieldFunc consumes the value of one field and returns the number of bytes
// used. Returning 0 skips the field as unknown.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireErr(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return wireErr(n)
		}
		b = b[n:]
	}
	return nil
}

func wireErr(n int) error {
	return fmt.Errorf("%w: %v", domain.ErrBadFormat, protowire.ParseError(n))
}

func decodeSample(b []byte) (*domain.ThreadsSample, error) {
	s := &domain.ThreadsSample{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == sampleTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			s.Timestamp = protowire.DecodeZigZag(v)
			return n, nil
		case num == sampleThread && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			t, err := decodeThread(msg)
			if err != nil {
				return 0, err
			}
			s.Threads = append(s.Threads, t)
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func decodeThread(b []byte) (domain.ThreadSnapshot, error) {
	var (
		t        domain.ThreadSnapshot
		hasSyncs bool
	)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case threadID:
				t.ID = protowire.DecodeZigZag(v)
			case threadState:
				t.State = domain.ThreadState(v)
				if n > 0 && !t.State.Valid() {
					return 0, fmt.Errorf("%w: thread state %d", domain.ErrBadFormat, v)
				}
			case threadLockOwnerID:
				t.LockOwnerID = protowire.DecodeZigZag(v)
			case threadHasSyncs:
				hasSyncs = v != 0
			default:
				return 0, nil
			}
			return n, nil
		}
		if typ != protowire.BytesType {
			return 0, nil
		}

		msg, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case threadName:
			t.Name = string(msg)
		case threadLockOwnerName:
			t.LockOwnerName = string(msg)
		case threadFrame:
			f, err := decodeFrame(msg)
			if err != nil {
				return 0, err
			}
			t.StackFrames = append(t.StackFrames, f)
		case threadLockInfo:
			l, _, err := decodeLock(msg)
			if err != nil {
				return 0, err
			}
			t.LockInfo = &l
		case threadMonitor:
			l, depth, err := decodeLock(msg)
			if err != nil {
				return 0, err
			}
			t.LockedMonitors = append(t.LockedMonitors, domain.MonitorDescriptor{
				LockDescriptor:   l,
				LockedStackDepth: depth,
			})
		case threadSynchronizer:
			l, _, err := decodeLock(msg)
			if err != nil {
				return 0, err
			}
			t.LockedSynchronizers = append(t.LockedSynchronizers, l)
		default:
			return 0, nil
		}
		return n, nil
	})
	if err != nil {
		return domain.ThreadSnapshot{}, err
	}
	if hasSyncs && t.LockedSynchronizers == nil {
		t.LockedSynchronizers = []domain.LockDescriptor{}
	}
	return t, nil
}

func decodeFrame(b []byte) (domain.Frame, error) {
	var f domain.Frame
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == frameLine && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			f.LineNumber = int(protowire.DecodeZigZag(v))
			return n, nil
		case typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			switch num {
			case frameClass:
				f.ClassName = s
			case frameMethod:
				f.MethodName = s
			case frameFile:
				f.FileName = s
			default:
				return 0, nil
			}
			return n, nil
		}
		return 0, nil
	})
	return f, err
}

// decodeLock decodes a lock or monitor message. depth is JNILockedDepth
// when the message carries none.
func decodeLock(b []byte) (domain.LockDescriptor, int, error) {
	var (
		l     domain.LockDescriptor
		depth = domain.JNILockedDepth
	)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == lockHash && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			l.IdentityHash = uint32(v)
			return n, nil
		case num == lockDepth && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			depth = int(protowire.DecodeZigZag(v))
			return n, nil
		case num == lockClass && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			l.ClassName = s
			return n, nil
		}
		return 0, nil
	})
	return l, depth, err
}
