package domain

import (
	"strconv"
	"strings"
)

// Line numbers with special meaning.
const (
	// LineUnknown marks a frame whose line number was not recorded.
	LineUnknown = -1

	// LineNative marks a frame executing a native method.
	LineNative = -2
)

// Frame is a single stack frame.
type Frame struct {
	// ClassName is the fully qualified declaring class, e.g. "java.lang.Object"
	ClassName string

	// MethodName is the method name without signature
	MethodName string

	// FileName is the source file, empty when unknown
	FileName string

	// LineNumber is the source line, or LineUnknown / LineNative
	LineNumber int
}

// IsNative reports whether the frame is executing native code.
func (f Frame) IsNative() bool {
	return f.LineNumber == LineNative
}

// Is reports whether the frame belongs to the given class and method.
func (f Frame) Is(className, methodName string) bool {
	return f.ClassName == className && f.MethodName == methodName
}

// QualifiedName returns "class.method".
func (f Frame) QualifiedName() string {
	return f.ClassName + "." + f.MethodName
}

// String renders the frame the way a JVM stack trace does:
// "pkg.Class.method(File.java:42)".
func (f Frame) String() string {
	var sb strings.Builder
	sb.WriteString(f.ClassName)
	sb.WriteByte('.')
	sb.WriteString(f.MethodName)
	sb.WriteByte('(')
	switch {
	case f.IsNative():
		sb.WriteString("Native Method")
	case f.FileName == "":
		sb.WriteString("Unknown Source")
	case f.LineNumber >= 0:
		sb.WriteString(f.FileName)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(f.LineNumber))
	default:
		sb.WriteString(f.FileName)
	}
	sb.WriteByte(')')
	return sb.String()
}
