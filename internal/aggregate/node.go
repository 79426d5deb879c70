package aggregate

import (
	"github.com/cespare/xxhash/v2"

	"github.com/bft-labs/npss/internal/domain"
)

// Node is one method in a call tree. Times are in timestamp units
// (nanoseconds for recordings made by the sampler).
type Node struct {
	ClassName  string
	MethodName string
	TotalTime  int64
	SelfTime   int64
	Samples    int
	Children   []*Node

	index map[uint64]*Node
}

// Name returns "class.method".
func (n *Node) Name() string {
	return n.ClassName + "." + n.MethodName
}

// SelfSamples is the number of samples in which n was the innermost frame.
func (n *Node) SelfSamples() int {
	s := n.Samples
	for _, c := range n.Children {
		s -= c.Samples
	}
	return s
}

// Child returns the child for the given method, or nil.
func (n *Node) Child(className, methodName string) *Node {
	if c, ok := n.index[methodKey(className, methodName)]; ok && c.ClassName == className && c.MethodName == methodName {
		return c
	}
	for _, c := range n.Children {
		if c.ClassName == className && c.MethodName == methodName {
			return c
		}
	}
	return nil
}

func (n *Node) childFor(f domain.Frame) *Node {
	if c := n.Child(f.ClassName, f.MethodName); c != nil {
		return c
	}
	c := &Node{ClassName: f.ClassName, MethodName: f.MethodName}
	if n.index == nil {
		n.index = make(map[uint64]*Node)
	}
	key := methodKey(f.ClassName, f.MethodName)
	if _, taken := n.index[key]; !taken {
		n.index[key] = c
	}
	n.Children = append(n.Children, c)
	return c
}

func methodKey(className, methodName string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(className)
	_, _ = d.WriteString(".")
	_, _ = d.WriteString(methodName)
	return d.Sum64()
}

// Walk visits n and its descendants depth first, passing the path from the
// thread root (exclusive) down to the node (inclusive).
func (n *Node) Walk(fn func(path []*Node)) {
	var visit func(path []*Node)
	visit = func(path []*Node) {
		fn(path)
		last := path[len(path)-1]
		for _, c := range last.Children {
			visit(append(path, c))
		}
	}
	for _, c := range n.Children {
		visit([]*Node{c})
	}
}
