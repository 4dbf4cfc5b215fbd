package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fecaudit/fecaudit/internal/cli"
	"github.com/fecaudit/fecaudit/internal/generate"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic FEC file",
		Long: `Generate synthetic FEC ledger data.

Vouchers are balanced double entries over a French chart of accounts. An
anomaly rate above zero injects known-bad data (duplicates, imbalances,
round amounts, weekend bookings, missing fields) for testing detection.

Examples:
  # A clean 1000-voucher ledger
  fecaudit generate -o clean.csv

  # 5% injected anomalies, reproducible
  fecaudit generate -o dirty.csv --anomaly-rate 0.05 --seed 42`,
		RunE: runGenerate,
	}

	cmd.Flags().StringP("output", "o", "fec.csv", "Output file")
	cmd.Flags().Int("count", 1000, "Number of vouchers to generate")
	cmd.Flags().Float64("anomaly-rate", 0, "Fraction of records to corrupt (0.0 - 1.0)")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().String("start-date", "2023-01-01", "First booking date (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "2023-12-31", "Last booking date (YYYY-MM-DD)")

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	count, _ := cmd.Flags().GetInt("count")
	anomalyRate, _ := cmd.Flags().GetFloat64("anomaly-rate")
	seed, _ := cmd.Flags().GetInt64("seed")
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return fmt.Errorf("invalid start date format (use YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return fmt.Errorf("invalid end date format (use YYYY-MM-DD): %w", err)
	}

	gen := generate.New(generate.Config{
		Count:       count,
		AnomalyRate: anomalyRate,
		Seed:        seed,
		StartDate:   start,
		EndDate:     end,
	})
	records := gen.Generate()

	if err := generate.WriteFile(output, records); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Wrote %d ledger lines to %s", len(records), output)))
	return nil
}
