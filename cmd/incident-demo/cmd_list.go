package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"incidentdemo/internal/scenario"
)

func newListCmd(a *app) *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scenarios in the source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := scenario.Load(cmd.Context(), a.cfg.Source())
			if err != nil {
				return err
			}
			a.logger.Info("scenarios loaded", zap.String("source", store.Source()), zap.Int("count", store.Len()))
			writeScenarioTable(cmd.OutOrStdout(), store, markdown)
			return nil
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the table as Markdown")
	return cmd
}

func writeScenarioTable(out io.Writer, store *scenario.Store, markdown bool) {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"ID", "Name", "Severity", "Human approval", "Actions"})
	for _, record := range store.Scenarios() {
		plan := record.Plan()
		w.AppendRow(table.Row{
			record.ID,
			record.Name,
			strings.ToUpper(nullCoalesce(plan.Severity, "-")),
			humanApproval(plan),
			plan.ActionPlan.Len(),
		})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 48},
		{Number: 5, Align: text.AlignRight},
	})
	if markdown {
		fmt.Fprintln(out, w.RenderMarkdown())
		return
	}
	fmt.Fprintln(out, w.Render())
}

func humanApproval(plan scenario.ResponsePlan) string {
	if plan.HumanInTheLoop == nil || !plan.HumanInTheLoop.Required {
		return "no"
	}
	return "required"
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
