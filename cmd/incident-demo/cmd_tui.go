package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"incidentdemo/internal/render"
	"incidentdemo/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	var altScreen, mouse bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive player (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if changed(cmd, "alt-screen") {
				a.cfg.UI.AltScreen = altScreen
			}
			if changed(cmd, "mouse") {
				a.cfg.UI.Mouse = mouse
			}
			return runTUI(cmd, a)
		},
	}
	cmd.Flags().BoolVar(&altScreen, "alt-screen", true, "Use the terminal alternate screen")
	cmd.Flags().BoolVar(&mouse, "mouse", false, "Enable mouse wheel scrolling")
	return cmd
}

func runTUI(_ *cobra.Command, a *app) error {
	model := tui.New(tui.Options{
		Source:   a.cfg.Source(),
		Logger:   a.logger,
		Renderer: render.Renderer{},
	})
	var opts []tea.ProgramOption
	if a.cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if a.cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	a.logger.Info("starting player", zap.String("source", a.cfg.Source()))
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		a.logger.Error("player exited with error", zap.Error(err))
		return fmt.Errorf("incident-demo: %w", err)
	}
	return nil
}
