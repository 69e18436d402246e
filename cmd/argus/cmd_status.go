package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"argus/internal/event"
)

var statusFlags struct {
	country string
	year    int
	month   int
	etype   string
	state   string
	limit   int
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored events and severity breakdowns for a slice",
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusFlags.country, "country", "", "Country name (required)")
	f.IntVar(&statusFlags.year, "year", 0, "Calendar year (required)")
	f.IntVar(&statusFlags.month, "month", 0, "Calendar month 1-12 (required)")
	f.StringVar(&statusFlags.etype, "type", "", "Optional event type filter")
	f.StringVar(&statusFlags.state, "state", "", "Optional admin1 filter")
	f.IntVar(&statusFlags.limit, "limit", 20, "Max event rows to show")

	_ = statusCmd.MarkFlagRequired("country")
	_ = statusCmd.MarkFlagRequired("year")
	_ = statusCmd.MarkFlagRequired("month")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, err := buildOrchestrator(cfg, st)
	if err != nil {
		return err
	}

	sl := event.Slice{
		Country: statusFlags.country,
		Year:    statusFlags.year,
		Month:   statusFlags.month,
		Type:    statusFlags.etype,
		State:   statusFlags.state,
	}
	report, err := orch.Report(cmd.Context(), sl, statusFlags.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Slice: %s\n\n", sl.String())

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetTitle("Events (fatalities desc, date asc)")
	tw.AppendHeader(table.Row{"ID", "Date", "State", "Sub-type", "Fat.", "Severity"})
	for _, r := range report.Rows {
		tw.AppendRow(table.Row{r.ID, r.Date, r.State, r.SubType, r.Fatalities, fmt.Sprintf("%.1f", r.Severity)})
	}
	tw.Render()

	tw = table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetTitle("Severity by state")
	tw.AppendHeader(table.Row{"State", "Total severity"})
	for _, b := range report.SeverityByState {
		tw.AppendRow(table.Row{b.Key, fmt.Sprintf("%.1f", b.TotalSeverity)})
	}
	tw.Render()

	tw = table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetTitle("Severity by event type")
	tw.AppendHeader(table.Row{"Event type", "Total severity"})
	for _, b := range report.SeverityByType {
		tw.AppendRow(table.Row{b.Key, fmt.Sprintf("%.1f", b.TotalSeverity)})
	}
	tw.Render()
	return nil
}
