package main

import (
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/npss/internal/cliconfig"
	"github.com/bft-labs/npss/internal/mcpserver"
	"github.com/bft-labs/npss/internal/report"
	"github.com/bft-labs/npss/internal/watch"
	"github.com/bft-labs/npss/pkg/log"
	"github.com/bft-labs/npss/pkg/npss"
)

func (a *app) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show sample count, time span and size of a sample file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.open()
			if err != nil {
				return err
			}
			defer snap.Close()
			return report.WriteInfo(cmd.OutOrStdout(), snap)
		},
	}
}

func (a *app) timelineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "List every sample with its timestamp and runnable stack depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.open()
			if err != nil {
				return err
			}
			defer snap.Close()
			return report.WriteTimeline(cmd.OutOrStdout(), snap)
		},
	}
}

func (a *app) dumpCommand() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "dump INDEX...",
		Short: "Print the thread dump of one or more samples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices := make([]int, len(args))
			for i, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("sample index %q: %w", arg, err)
				}
				indices[i] = n
			}

			snap, err := a.open()
			if err != nil {
				return err
			}
			defer snap.Close()

			dumps, err := snap.ThreadDumps(cmd.Context(), indices, a.cfg.Concurrency)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, dump := range dumps {
				if text {
					dump = stripMarkup(dump)
				}
				fmt.Fprintf(out, "=== sample %d ===\n%s\n", indices[i], dump)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "print plain text instead of markup")
	cmd.Flags().IntVar(&a.cfg.Concurrency, "concurrency", a.cfg.Concurrency, "samples read in parallel")
	return cmd
}

func (a *app) snapshotCommand() *cobra.Command {
	var start, end int
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Aggregate a range of samples into call trees, a hotspot table or pprof",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.open()
			if err != nil {
				return err
			}
			defer snap.Close()

			n := snap.SampleCount()
			if n == 0 {
				return fmt.Errorf("%s has no samples", snap.Name())
			}
			if end < 0 {
				end = n - 1
			}
			if start == 0 && end == n-1 {
				// A forward walk aggregates as it reads; the snapshot is
				// then handed over without a second pass.
				for i := 0; i < n; i++ {
					if _, err := snap.TimestampOf(i); err != nil {
						return err
					}
				}
			}
			loaded, err := snap.Snapshot(start, end)
			if err != nil {
				return err
			}

			if a.cfg.Output != "" {
				err = writeSnapshotFile(a.cfg.Output, loaded, a.cfg)
			} else {
				err = writeSnapshot(cmd.OutOrStdout(), loaded, a.cfg)
			}
			if err != nil {
				return err
			}
			a.logger.Info("snapshot written",
				log.Int("samples", loaded.CPU.SampleCount),
				log.String("format", a.cfg.Format),
				log.String("output", a.cfg.Output))
			return nil
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "first sample index")
	cmd.Flags().IntVar(&end, "end", -1, "last sample index, inclusive (default: last sample)")
	cmd.Flags().StringVar(&a.cfg.Format, "format", a.cfg.Format, "output format (tree, top, pprof)")
	cmd.Flags().IntVar(&a.cfg.Top, "top", a.cfg.Top, "rows in the hotspot table (0 for all)")
	cmd.Flags().StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "write to this file instead of stdout")
	return cmd
}

// writeSnapshotFile writes the rendering to path and reports the close error,
// since a buffered write may only fail on close.
func writeSnapshotFile(path string, loaded *npss.LoadedSnapshot, cfg cliconfig.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeSnapshot(f, loaded, cfg); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeSnapshot(w io.Writer, loaded *npss.LoadedSnapshot, cfg cliconfig.Config) error {
	switch cfg.Format {
	case cliconfig.FormatPprof:
		return loaded.CPU.WritePprof(w)
	case cliconfig.FormatTop:
		return report.WriteHotspots(w, loaded.CPU, cfg.Top)
	default:
		_, err := fmt.Fprintln(w, loaded.CPU.String())
		return err
	}
}

func (a *app) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a sample file while it is being recorded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireFile(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			w := watch.New(a.cfg.File, watch.Config{
				DebounceDelay: a.cfg.Debounce,
				Options:       a.options(false),
			}, a.logger, func(u watch.Update) {
				fmt.Fprintf(out, "%d samples, last at %d\n", u.SampleCount, u.LastTimestamp)
			})
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&a.cfg.Debounce, "debounce", a.cfg.Debounce, "quiet period before rescanning a changed file")
	return cmd
}

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the sample file tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("serving MCP on stdio")
			return mcpserver.New(a.logger, a.options(false)...).ServeStdio(getVersion())
		},
	}
}

var markupTag = regexp.MustCompile(`<[^>]*>`)

// stripMarkup turns a thread dump into plain text.
func stripMarkup(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = markupTag.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
