package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"argus/internal/ingest"
	"argus/internal/logging"
)

var ingestFlags struct {
	country string
	year    int
	month   int
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull one country-month from the ACLED feed into the local store",
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.country, "country", "", "Country name as used by the feed (required)")
	f.IntVar(&ingestFlags.year, "year", 0, "Calendar year (required)")
	f.IntVar(&ingestFlags.month, "month", 0, "Calendar month 1-12 (required)")

	_ = ingestCmd.MarkFlagRequired("country")
	_ = ingestCmd.MarkFlagRequired("year")
	_ = ingestCmd.MarkFlagRequired("month")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := ingest.NewClient(cfg.ACLED.Key, cfg.ACLED.Email,
		ingest.WithLogger(logging.New("acled")))
	if err != nil {
		return err
	}
	ing := ingest.NewIngestor(client, st, ingest.WithIngestLogger(logging.New("ingest")))

	n, err := ing.IngestMonth(cmd.Context(), ingestFlags.country, ingestFlags.year, ingestFlags.month)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d events for %s %d-%02d\n",
		n, ingestFlags.country, ingestFlags.year, ingestFlags.month)
	return nil
}
