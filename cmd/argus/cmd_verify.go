package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"argus/internal/event"
	"argus/internal/verify"
)

var verifyFlags struct {
	file    string
	country string
	year    int
	month   int
	etype   string
	state   string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check cited event IDs in a brief against the local store",
	RunE:  runVerify,
}

func init() {
	f := verifyCmd.Flags()
	f.StringVar(&verifyFlags.file, "file", "", "File with the brief text (required)")
	f.StringVar(&verifyFlags.country, "country", "", "Country the brief covers (required)")
	f.IntVar(&verifyFlags.year, "year", 0, "Calendar year (required)")
	f.IntVar(&verifyFlags.month, "month", 0, "Calendar month 1-12 (required)")
	f.StringVar(&verifyFlags.etype, "type", "", "Optional event type filter")
	f.StringVar(&verifyFlags.state, "state", "", "Optional admin1 filter")

	_ = verifyCmd.MarkFlagRequired("file")
	_ = verifyCmd.MarkFlagRequired("country")
	_ = verifyCmd.MarkFlagRequired("year")
	_ = verifyCmd.MarkFlagRequired("month")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	text, err := os.ReadFile(verifyFlags.file)
	if err != nil {
		return fmt.Errorf("read brief: %w", err)
	}

	sl := event.Slice{
		Country: verifyFlags.country,
		Year:    verifyFlags.year,
		Month:   verifyFlags.month,
		Type:    verifyFlags.etype,
		State:   verifyFlags.state,
	}
	missing, err := verify.New(st).Verify(cmd.Context(), string(text), sl)
	if err != nil {
		return err
	}
	cited := verify.ExtractIDs(string(text))

	missingSet := make(map[string]bool, len(missing))
	for _, id := range missing {
		missingSet[id] = true
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"Event ID", "Status"})
	for _, id := range cited {
		status := "ok"
		if missingSet[id] {
			status = "MISSING"
		}
		tw.AppendRow(table.Row{id, status})
	}
	tw.Render()

	if len(missing) > 0 {
		return fmt.Errorf("%d of %d citations could not be verified", len(missing), len(cited))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "All %d citations verified.\n", len(cited))
	return nil
}
