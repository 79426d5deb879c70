package aggregate

import (
	"github.com/bft-labs/npss/internal/domain"
)

// Builder accumulates samples into per-thread call trees.
// The zero value is not usable; use NewBuilder.
type Builder struct {
	threads map[int64]*ThreadTree
	order   []*ThreadTree
	samples int
	first   int64
	last    int64
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{threads: make(map[int64]*ThreadTree)}
}

// Samples returns the number of samples added since the last Finalize.
func (b *Builder) Samples() int { return b.samples }

// AddSample charges the interval since the previous sample to the stacks of
// the RUNNABLE threads in this one.
func (b *Builder) AddSample(threads []domain.ThreadSnapshot, timestamp int64) {
	var delta int64
	if b.samples == 0 {
		b.first = timestamp
	} else if timestamp > b.last {
		delta = timestamp - b.last
	}
	b.samples++
	b.last = timestamp

	for i := range threads {
		b.addThread(&threads[i], delta)
	}
}

func (b *Builder) addThread(t *domain.ThreadSnapshot, delta int64) {
	tree, ok := b.threads[t.ID]
	if !ok {
		tree = &ThreadTree{ID: t.ID, Name: t.Name, Root: &Node{}}
		b.threads[t.ID] = tree
		b.order = append(b.order, tree)
	}
	tree.Name = t.Name

	var cpu int64
	if t.State == domain.StateRunnable {
		cpu = delta
	}
	node := tree.Root
	node.Samples++
	node.TotalTime += cpu
	// Frames are top of stack first; the tree grows from the outermost call.
	for i := len(t.StackFrames) - 1; i >= 0; i-- {
		node = node.childFor(t.StackFrames[i])
		node.Samples++
		node.TotalTime += cpu
	}
	node.SelfTime += cpu
}

// Finalize returns the snapshot of everything added so far and resets the
// builder. startTime is the beginning of the window the snapshot covers.
// Returns domain.ErrNoData when no sample was added.
func (b *Builder) Finalize(startTime int64) (*Snapshot, error) {
	if b.samples == 0 {
		return nil, domain.ErrNoData
	}
	s := &Snapshot{
		StartTime:   startTime,
		EndTime:     b.last,
		FirstSample: b.first,
		SampleCount: b.samples,
		Threads:     b.order,
	}
	*b = *NewBuilder()
	return s, nil
}
