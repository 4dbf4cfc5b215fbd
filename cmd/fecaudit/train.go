package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/fecaudit/fecaudit/internal/cli"
	"github.com/fecaudit/fecaudit/internal/common"
	"github.com/fecaudit/fecaudit/internal/fec"
	"github.com/fecaudit/fecaudit/internal/generate"
	"github.com/fecaudit/fecaudit/internal/ml"
	"github.com/fecaudit/fecaudit/internal/registry"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train anomaly detection models on synthetic data",
		Long: `Train the per-feature-group isolation forest models.

Training data is generated synthetically: clean, balanced vouchers that
represent normal bookkeeping. The fitted models and scalers are saved as
artifact files and registered in the model registry.

Examples:
  # Train and register version v1
  fecaudit train --model-version v1 --registry models.json

  # Train, register and activate
  fecaudit train --model-version v2 --registry models.json --activate`,
		RunE: runTrain,
	}

	cmd.Flags().String("model-version", "", "Version id to register (default: timestamp)")
	cmd.Flags().Int("count", 5000, "Number of training vouchers to generate")
	cmd.Flags().Int64("seed", 42, "Random seed for training data")
	cmd.Flags().String("artifacts-dir", "models", "Directory for model artifact files")
	cmd.Flags().Bool("activate", false, "Activate the new version after registering")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	version, _ := cmd.Flags().GetString("model-version")
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetInt64("seed")
	artifactsDir, _ := cmd.Flags().GetString("artifacts-dir")
	activate, _ := cmd.Flags().GetBool("activate")

	if version == "" {
		version = time.Now().UTC().Format("20060102-150405")
	}

	reg, closeReg, err := openRegistry()
	if err != nil {
		return err
	}
	if reg == nil {
		return fmt.Errorf("%w: training requires a model registry (--registry)", common.ErrMissingConfig)
	}
	defer closeReg() //nolint:errcheck // read-side close

	bar := trainProgressBar()

	// Phase 1: training data
	gen := generate.New(generate.Config{Count: count, Seed: seed})
	entries := fec.Normalize(gen.Generate())
	_ = bar.Add(1)

	// Phase 2: fit
	trainer := ml.NewTrainer()
	if err := trainer.Train(entries); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	_ = bar.Add(1)

	// Phase 3: evaluate on held-out data
	holdout := fec.Normalize(generate.New(generate.Config{Count: count / 5, Seed: seed + 1}).Generate())
	metrics, err := trainer.Evaluate(holdout)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	_ = bar.Add(1)

	// Phase 4: persist artifacts
	dir := filepath.Join(artifactsDir, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}
	bundle, err := trainer.Bundle(version)
	if err != nil {
		return err
	}
	files, err := bundle.Save(dir)
	if err != nil {
		return fmt.Errorf("saving artifacts: %w", err)
	}
	_ = bar.Add(1)

	// Phase 5: register
	err = reg.Register(ctx, registry.Record{
		Version:   version,
		CreatedAt: time.Now().UTC(),
		Files:     files,
		Metrics:   metrics,
		Metadata: map[string]string{
			"training_entries": fmt.Sprintf("%d", len(entries)),
			"seed":             fmt.Sprintf("%d", seed),
		},
	})
	if err != nil {
		return fmt.Errorf("registering model %s: %w", version, err)
	}
	if activate {
		if err := reg.SetActive(ctx, version); err != nil {
			return fmt.Errorf("activating model %s: %w", version, err)
		}
	}
	_ = bar.Add(1)

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Registered model %s (%d training entries)", version, len(entries))))
	if activate {
		fmt.Println(cli.FormatInfo("Version " + version + " is now active"))
	}
	return nil
}

func trainProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(5,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Training models...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
