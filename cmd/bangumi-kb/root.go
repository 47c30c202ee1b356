package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/bangumi-kb/pkg/config"
	"github.com/Sternrassler/bangumi-kb/pkg/logging"
	"github.com/Sternrassler/bangumi-kb/pkg/metrics"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// rootOptions holds the persistent flags and the resolved configuration.
type rootOptions struct {
	configPath  string
	logLevel    string
	logJSON     bool
	metricsFile string

	cfg   config.Config
	runID string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bangumi-kb",
		Short: "Build a Markdown knowledge base from the Bangumi catalog",
		Long: `bangumi-kb - Bangumi 动画知识库生成工具

Two steps share one JSON file:
  collect  lists every subject, fetches each detail record and writes the knowledge base
  format   renders the knowledge base as Markdown blocks joined by "---"

Configuration is read from an optional YAML file, then BGM_* environment
variables, then flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.setup(cmd); err != nil {
				log.Error().Err(err).Msg("Configuration failed")
				return err
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logJSON, "log-json", false, "emit JSON log lines instead of console output")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when the run ends")

	cmd.AddCommand(newCollectCmd(opts))
	cmd.AddCommand(newFormatCmd(opts))

	return cmd
}

// setup resolves the configuration (file, env, flags) and configures logging.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = o.logJSON
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}

	o.cfg = cfg
	o.runID = logging.NewRunID()

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: !cfg.Log.JSON,
		Output: cmd.ErrOrStderr(),
		RunID:  o.runID,
	})
	return nil
}

// finish exports metrics and logs the command's outcome.
func (o *rootOptions) finish(command string, err error) error {
	if mErr := metrics.WriteTextfile(o.cfg.MetricsFile); mErr != nil {
		log.Warn().Err(mErr).Str("path", o.cfg.MetricsFile).Msg("Failed to write metrics file")
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("Run failed")
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printLine(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
