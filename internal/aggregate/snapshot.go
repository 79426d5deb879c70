package aggregate

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"
)

// ThreadTree is the call tree of one thread. Root is a synthetic node whose
// counters cover every observation of the thread.
type ThreadTree struct {
	ID   int64
	Name string
	Root *Node
}

// Snapshot is a finalized aggregate over a contiguous window of samples.
type Snapshot struct {
	// StartTime is the start of the window as given to Finalize.
	StartTime int64
	// FirstSample is the timestamp of the first aggregated sample.
	FirstSample int64
	// EndTime is the timestamp of the last aggregated sample.
	EndTime     int64
	SampleCount int
	Threads     []*ThreadTree
}

// Duration returns EndTime - StartTime.
func (s *Snapshot) Duration() int64 {
	return s.EndTime - s.StartTime
}

// Thread returns the tree of the thread with the given id, or nil.
func (s *Snapshot) Thread(id int64) *ThreadTree {
	for _, t := range s.Threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TotalTime is the CPU time charged across all threads.
func (s *Snapshot) TotalTime() int64 {
	var total int64
	for _, t := range s.Threads {
		total += t.Root.TotalTime
	}
	return total
}

// Hotspot is a method's cost summed over every thread and call path.
type Hotspot struct {
	Method    string
	SelfTime  int64
	TotalTime int64
	Samples   int
}

// Hotspots returns up to n methods ordered by self time, then total time.
// Recursive calls are counted once per path for total time. n <= 0 returns
// every method.
func (s *Snapshot) Hotspots(n int) []Hotspot {
	byName := make(map[string]*Hotspot)
	for _, t := range s.Threads {
		t.Root.Walk(func(path []*Node) {
			node := path[len(path)-1]
			name := node.Name()
			h, ok := byName[name]
			if !ok {
				h = &Hotspot{Method: name}
				byName[name] = h
			}
			h.SelfTime += node.SelfTime
			for _, p := range path[:len(path)-1] {
				if p.ClassName == node.ClassName && p.MethodName == node.MethodName {
					return
				}
			}
			h.TotalTime += node.TotalTime
			h.Samples += node.Samples
		})
	}

	out := make([]Hotspot, 0, len(byName))
	for _, h := range byName {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SelfTime != out[j].SelfTime {
			return out[i].SelfTime > out[j].SelfTime
		}
		if out[i].TotalTime != out[j].TotalTime {
			return out[i].TotalTime > out[j].TotalTime
		}
		return out[i].Method < out[j].Method
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// String renders the call trees, one branch per thread.
func (s *Snapshot) String() string {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%d samples [%d..%d]", s.SampleCount, s.StartTime, s.EndTime))
	for _, t := range s.Threads {
		branch := tree.AddBranch(fmt.Sprintf("%q t@%d: total %d samples %d", t.Name, t.ID, t.Root.TotalTime, t.Root.Samples))
		addBranches(branch, t.Root.Children)
	}
	return tree.String()
}

func addBranches(parent treeprint.Tree, nodes []*Node) {
	for _, n := range nodes {
		label := fmt.Sprintf("%s: self %d total %d samples %d", n.Name(), n.SelfTime, n.TotalTime, n.Samples)
		if len(n.Children) == 0 {
			parent.AddNode(label)
			continue
		}
		addBranches(parent.AddBranch(label), n.Children)
	}
}
