// Package report renders sample files and CPU snapshots as text for the CLI
// and the MCP tools.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/bft-labs/npss/pkg/npss"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// WriteInfo writes the file summary. It reads the first sample through the
// cursor of s, so it must run before any other cursor access.
func WriteInfo(w io.Writer, s *npss.SampledCPUSnapshot) error {
	size, err := s.FileSize()
	if err != nil {
		return err
	}
	table := newTable(w, "Property", "Value")
	table.Append([]string{"File", s.Name()})
	table.Append([]string{"Size", humanize.Bytes(uint64(size))})
	table.Append([]string{"Samples", humanize.Comma(int64(s.SampleCount()))})
	if s.SampleCount() > 0 {
		first, err := s.TimestampOf(0)
		if err != nil {
			return err
		}
		last := s.LastTimestamp()
		table.Append([]string{"First sample", strconv.FormatInt(first, 10)})
		table.Append([]string{"Last sample", strconv.FormatInt(last, 10)})
		table.Append([]string{"Span", time.Duration(last - first).String()})
	}
	settings := npss.CPUPreset()
	table.Append([]string{"Profiling", fmt.Sprintf("%s, every %s", settings.Name, settings.SamplingInterval)})
	table.Render()
	return nil
}

// WriteTimeline walks every sample through the cursor of s and writes its
// timestamp and activity metric. Afterwards the whole file has been
// aggregated incrementally and s.Snapshot(0, n-1) is served without a
// rescan.
func WriteTimeline(w io.Writer, s *npss.SampledCPUSnapshot) error {
	table := newTable(w, "#", "Timestamp", "Offset", "Runnable depth")
	var start int64
	for i := 0; i < s.SampleCount(); i++ {
		ts, err := s.TimestampOf(i)
		if err != nil {
			return err
		}
		metric, err := s.MetricOf(i, 0)
		if err != nil {
			return err
		}
		if i == 0 {
			start = ts
		}
		table.Append([]string{
			strconv.Itoa(i),
			strconv.FormatInt(ts, 10),
			time.Duration(ts - start).String(),
			strconv.FormatInt(metric, 10),
		})
	}
	table.Render()
	return nil
}

// WriteHotspots writes the n most expensive methods of cpu by self time.
func WriteHotspots(w io.Writer, cpu *npss.CPUSnapshot, n int) error {
	total := cpu.TotalTime()
	table := newTable(w, "Rank", "Method", "Self", "Self %", "Total", "Samples")
	for i, h := range cpu.Hotspots(n) {
		table.Append([]string{
			strconv.Itoa(i + 1),
			h.Method,
			time.Duration(h.SelfTime).String(),
			percent(h.SelfTime, total),
			time.Duration(h.TotalTime).String(),
			humanize.Comma(int64(h.Samples)),
		})
	}
	table.Render()
	_, err := fmt.Fprintf(w, "%s samples over %s\n", humanize.Comma(int64(cpu.SampleCount)), time.Duration(cpu.Duration()))
	return err
}

func percent(part, total int64) string {
	if total <= 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(float64(part)*100/float64(total), 'f', 1, 64) + "%"
}
