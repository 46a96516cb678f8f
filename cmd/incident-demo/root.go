package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"incidentdemo/internal/config"
	"incidentdemo/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	configPath string
	source     string
	logLevel   string
	logFile    string
}

// app is what every subcommand runs with once flags, env and the config
// file are merged.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "incident-demo",
		Short: "Replay scripted incident-response scenarios in the terminal",
		Long: "incident-demo plays back canned monitoring, analysis and response agent\n" +
			"outputs for a scenario and renders the final response plan.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, a)
		},
	}
	root.Version = version

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/incident-demo/config.toml)")
	pf.StringVar(&flags.source, "source", "", "Scenario file path or http(s) URL (.json, .yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", `Log file; "-" for stderr, "off" to disable`)

	root.AddCommand(newTUICmd(a), newListCmd(a), newRenderCmd(a))
	return root
}

// setup resolves configuration with flag > env > file > default precedence
// and builds the logger.
func (a *app) setup(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if changed(cmd, "source") {
		cfg.Scenarios.Source = flags.source
	}
	if changed(cmd, "log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if changed(cmd, "log-file") {
		cfg.Logging.File = flags.logFile
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel(), File: cfg.Logging.File})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.cfg = cfg
	a.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

func changed(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && flag.Changed
}
