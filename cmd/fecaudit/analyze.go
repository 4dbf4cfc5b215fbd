package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fecaudit/fecaudit/internal/cli"
	"github.com/fecaudit/fecaudit/internal/common"
	"github.com/fecaudit/fecaudit/internal/detect"
	"github.com/fecaudit/fecaudit/internal/fec"
	"github.com/fecaudit/fecaudit/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <fec-file>",
		Short: "Analyze a FEC export for anomalies",
		Long: `Analyze a FEC ledger export for anomalies.

The file is parsed, normalized and run through the detection engine. When a
trained model is available in the registry it is used for scoring; otherwise
the deterministic rule battery runs. Either way results are ranked by
confidence.

Examples:
  # Rule-based analysis
  fecaudit analyze export.csv

  # Use the active trained model
  fecaudit analyze export.csv --registry models.json

  # Pin a specific model version
  fecaudit analyze export.csv --registry models.json --model-version v3

  # Machine-readable output
  fecaudit analyze export.csv --output json`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().String("model-version", "", "Model version to use (default: the registry's active version)")
	cmd.Flags().String("output", "report", "Output format (report, json)")
	cmd.Flags().String("stats-file", "", "Append per-run statistics to this JSONL file")
	cmd.Flags().Int("max-anomalies", 0, "Override the maximum number of reported anomalies")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cli.NewInterruptHandler(nil).HandleInterrupts(cmd.Context())

	modelVersion, _ := cmd.Flags().GetString("model-version")
	outputFormat, _ := cmd.Flags().GetString("output")
	statsFile, _ := cmd.Flags().GetString("stats-file")
	maxAnomalies, _ := cmd.Flags().GetInt("max-anomalies")

	records, err := fec.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	entries := fec.Normalize(records)
	if len(entries) == 0 {
		return fmt.Errorf("%s: %w", args[0], common.ErrNoEntries)
	}

	rules, err := detectionRules()
	if err != nil {
		return err
	}
	if maxAnomalies > 0 {
		rules.MaxAnomalies = maxAnomalies
	}

	reg, closeReg, err := openRegistry()
	if err != nil {
		return err
	}
	if closeReg != nil {
		defer closeReg() //nolint:errcheck // read-side close
	}

	cfg := detect.Config{
		Registry:     reg,
		ModelVersion: modelVersion,
		Rules:        rules,
	}
	if statsFile != "" {
		cfg.Stats = detect.NewJSONLStatsSink(statsFile)
	}

	detector := detect.New(ctx, cfg)
	anomalies, err := detector.Detect(ctx, entries)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	switch outputFormat {
	case "json":
		return writeJSONReport(anomalies, len(entries))
	case "report":
		cli.RenderReport(os.Stdout, anomalies, len(entries))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func writeJSONReport(anomalies []model.Anomaly, entryCount int) error {
	report := struct {
		Anomalies  []model.Anomaly `json:"anomalies"`
		EntryCount int             `json:"entry_count"`
	}{Anomalies: anomalies, EntryCount: entryCount}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
