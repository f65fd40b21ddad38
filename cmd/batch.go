package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tracefec/tracefec/internal/batch"
	"github.com/tracefec/tracefec/internal/runconfig"
)

var batchConfigPath string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Fan the inject then replay pipeline out over every trace in a run manifest",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := runconfig.Load(batchConfigPath)
		if err != nil {
			logrus.Fatalf("Failed to load batch config: %v", err)
		}
		if len(cfg.Traces) == 0 {
			logrus.Fatalf("Batch config lists no trace files")
		}

		simCfg, err := cfg.SimConfig()
		if err != nil {
			logrus.Fatalf("Invalid batch config: %v", err)
		}

		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			logrus.Fatalf("Failed to create output dir: %v", err)
		}

		logrus.Infof("Starting batch run: %d trace(s), concurrency=%d", len(cfg.Traces), cfg.WorkerCount())
		pool := &batch.Pool{Concurrency: cfg.WorkerCount()}
		results := pool.Run(cfg.Traces, simCfg, cfg.OutputDir)

		for _, r := range results {
			if r.Err != nil {
				logrus.Errorf("batch: %s failed: %v", r.TracePath, r.Err)
			}
		}

		summary := batch.Summarize(results)
		summaryYAML, err := summary.WriteYAML()
		if err != nil {
			logrus.Fatalf("Failed to render summary: %v", err)
		}
		summaryPath := filepath.Join(cfg.OutputDir, "summary.yaml")
		if err := os.WriteFile(summaryPath, summaryYAML, 0o644); err != nil {
			logrus.Fatalf("Failed to write summary: %v", err)
		}
		logrus.Infof("Wrote batch summary to %s", summaryPath)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchConfigPath, "config", "", "Path to the batch run manifest YAML file")
	_ = batchCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(batchCmd)
}
