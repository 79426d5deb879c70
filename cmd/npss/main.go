package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	progress "github.com/bft-labs/npss/internal/adapters/log"
	"github.com/bft-labs/npss/internal/cliconfig"
	"github.com/bft-labs/npss/pkg/log"
	"github.com/bft-labs/npss/pkg/npss"
)

const helpDescription = `
Inspect sampled CPU snapshots (.npss) recorded from a running JVM.

Highlights:
  - Walks the sample timeline in one forward pass and aggregates as it goes.
  - Renders thread dumps of any sample with lock ownership annotations.
  - Builds call trees and hotspot tables for any sample range, or exports pprof.
  - Follows files that are still being recorded and serves MCP tools.
`

var exampleUsage = strings.TrimSpace(`
  npss info --file cpu.npss
  npss snapshot --file cpu.npss --format top --top 30
  npss snapshot --file cpu.npss --start 100 --end 400 --format pprof --output cpu.pb.gz
  npss dump --file cpu.npss 0 17 42
  npss watch --file live.npss
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the resolved configuration into every subcommand.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  *log.ZerologAdapter
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:               "npss",
		Short:             "Inspect sampled CPU snapshot files",
		Long:              strings.TrimSpace(helpDescription),
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.npss/config.toml)")
	root.PersistentFlags().StringVarP(&a.cfg.File, "file", "f", a.cfg.File, "sample file to read")
	root.PersistentFlags().StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format (auto, console, json)")
	root.PersistentFlags().IntVar(&a.cfg.AvgRecordSize, "avg-record-size", a.cfg.AvgRecordSize, "assumed bytes per sample when estimating prescan progress")
	root.PersistentFlags().IntVar(&a.cfg.ProgressStep, "progress-step", a.cfg.ProgressStep, "percent between prescan progress log lines")
	if err := root.PersistentFlags().MarkHidden("avg-record-size"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	root.AddCommand(
		a.infoCommand(),
		a.timelineCommand(),
		a.dumpCommand(),
		a.snapshotCommand(),
		a.watchCommand(),
		a.mcpCommand(),
	)

	if err := root.Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("npss", log.Err(err))
		} else {
			fmt.Fprintln(os.Stderr, "npss:", err)
		}
		os.Exit(1)
	}
}

// load resolves configuration (flags > env > file > defaults) and builds
// the logger.
func (a *app) load(cmd *cobra.Command, args []string) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger, err := log.New(os.Stderr, a.cfg.LogLevel, a.cfg.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger
	logger.Logger().Debug().Interface("config", a.cfg).Msg("configuration")
	return nil
}

// options returns the snapshot options for the resolved configuration.
// Progress is reported only when withProgress is set; the sink is not safe
// for concurrent prescans.
func (a *app) options(withProgress bool) []npss.Option {
	opts := []npss.Option{
		npss.WithLogger(a.logger),
		npss.WithAverageRecordSize(int64(a.cfg.AvgRecordSize)),
	}
	if withProgress {
		opts = append(opts, npss.WithProgress(progress.NewProgressLogger(a.logger, "prescan", a.cfg.ProgressStep)))
	}
	return opts
}

// open opens the configured sample file.
func (a *app) open() (*npss.SampledCPUSnapshot, error) {
	if err := a.cfg.RequireFile(); err != nil {
		return nil, err
	}
	return npss.Open(a.cfg.File, a.options(true)...)
}
