package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"incidentdemo/internal/playback"
	"incidentdemo/internal/render"
	"incidentdemo/internal/scenario"
)

type renderFlags struct {
	instant bool
	plain   bool
	details bool
	width   int
}

func newRenderCmd(a *app) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <scenario-id>",
		Short: "Play a scenario without the UI and print each card and the plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := scenario.Load(cmd.Context(), a.cfg.Source())
			if err != nil {
				return err
			}
			sleep := playback.Sleep
			if flags.instant {
				sleep = playback.Instant
			}
			return renderScenario(cmd, a.logger, store, args[0], sleep, flags, time.Now)
		},
	}
	cmd.Flags().BoolVar(&flags.instant, "instant", false, "Skip the simulated stage delays")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "Print raw Markdown instead of styled output")
	cmd.Flags().BoolVar(&flags.details, "details", false, "Include each agent's full record")
	cmd.Flags().IntVar(&flags.width, "width", 0, "Wrap width for styled output (default: 80)")
	return cmd
}

func renderScenario(cmd *cobra.Command, logger *zap.Logger, store *scenario.Store, id string, sleep playback.Sleeper, flags *renderFlags, now func() time.Time) error {
	out := cmd.OutOrStdout()
	seq := playback.New(store, render.Renderer{}, playback.WithClock(now))
	emit := func(markdown string) {
		if flags.plain {
			fmt.Fprintln(out, markdown)
			return
		}
		fmt.Fprintln(out, render.Terminal(markdown, flags.width))
		fmt.Fprintln(out)
	}

	observe := func(state playback.State, effects []playback.Effect) {
		for _, effect := range effects {
			switch effect := effect.(type) {
			case playback.StageChanged:
				if effect.Status != playback.StageCompleted || len(state.Cards) == 0 {
					continue
				}
				card := state.Cards[len(state.Cards)-1]
				card.Expanded = flags.details
				logger.Debug("card rendered", zap.String("stage", string(effect.Stage)), zap.Int("confidence", card.ConfidencePercent))
				emit(card.Markdown())
			case playback.StatusChanged:
				logger.Info("status changed", zap.String("from", string(effect.From)), zap.String("to", string(effect.To)), zap.String("scenario", id))
				if effect.To == playback.StatusCompleted && state.Plan != nil {
					emit(state.Plan.Markdown())
				}
			}
		}
	}

	ctx := cmd.Context()
	if _, err := playback.Play(ctx, seq, seq.Initial(), id, sleep, observe); err != nil {
		logger.Error("render failed", zap.String("scenario", id), zap.Error(err))
		return fmt.Errorf("render %s: %w", id, err)
	}
	return nil
}
