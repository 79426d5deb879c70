package aggregate

import (
	"io"

	"github.com/google/pprof/profile"
)

// Profile converts the snapshot to a pprof profile with two sample types:
// observation count and CPU time. Each thread's call paths become samples
// labelled with the thread name.
func (s *Snapshot) Profile() *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		PeriodType:    &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		TimeNanos:     s.StartTime,
		DurationNanos: s.Duration(),
	}
	if s.SampleCount > 1 {
		p.Period = (s.EndTime - s.FirstSample) / int64(s.SampleCount-1)
	}

	locations := make(map[string]*profile.Location)
	location := func(n *Node) *profile.Location {
		name := n.Name()
		if loc, ok := locations[name]; ok {
			return loc
		}
		fn := &profile.Function{
			ID:         uint64(len(p.Function) + 1),
			Name:       name,
			SystemName: name,
		}
		p.Function = append(p.Function, fn)
		loc := &profile.Location{
			ID:   uint64(len(p.Location) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)
		locations[name] = loc
		return loc
	}

	for _, t := range s.Threads {
		t.Root.Walk(func(path []*Node) {
			leaf := path[len(path)-1]
			selfSamples := leaf.SelfSamples()
			if selfSamples == 0 && leaf.SelfTime == 0 {
				return
			}
			stack := make([]*profile.Location, 0, len(path))
			for i := len(path) - 1; i >= 0; i-- {
				stack = append(stack, location(path[i]))
			}
			p.Sample = append(p.Sample, &profile.Sample{
				Location: stack,
				Value:    []int64{int64(selfSamples), leaf.SelfTime},
				Label:    map[string][]string{"thread": {t.Name}},
			})
		})
	}
	return p
}

// WritePprof writes the snapshot as a gzipped pprof protobuf.
func (s *Snapshot) WritePprof(w io.Writer) error {
	return s.Profile().Write(w)
}
