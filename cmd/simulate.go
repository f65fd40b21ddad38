package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tracefec/tracefec/sim"
	"github.com/tracefec/tracefec/sim/trace"
)

var (
	simTracePath    string
	simAnnotatedOut string
	simReceivedOut  string
	simStrategy     string
	simWindowSize   int
	simBlockSize    int
	simLossRate     float64
	simRTT          float64
	simMaxInflight  int
	simSeed         int64
	simExternalFEC  float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the full inject then replay pipeline over one trace file",
	Run: func(cmd *cobra.Command, args []string) {
		strategy, ok := trace.ParseStrategy(simStrategy)
		if !ok {
			logrus.Fatalf("Invalid strategy: %s", simStrategy)
		}

		packets, err := trace.ReadFile(simTracePath)
		if err != nil {
			logrus.Fatalf("Failed to read trace: %v", err)
		}

		cfg := sim.DefaultConfig(strategy)
		cfg.Injector.WindowSize = simWindowSize
		cfg.Injector.BlockSize = simBlockSize
		cfg.LossRate = simLossRate
		cfg.RTT = simRTT
		cfg.MaxInflight = simMaxInflight
		cfg.Seed = simSeed
		cfg.ExternalFECRate = simExternalFEC

		logrus.Infof("Starting simulation: strategy=%s loss_rate=%.3f rtt=%.3f max_inflight=%d seed=%d",
			strategy, cfg.LossRate, cfg.RTT, cfg.MaxInflight, cfg.Seed)

		received, stats, err := sim.Simulate(packets, cfg)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if simAnnotatedOut != "" {
			if err := trace.WriteFile(simAnnotatedOut, packets); err != nil {
				logrus.Fatalf("Failed to write annotated trace: %v", err)
			}
		}
		if simReceivedOut != "" {
			if err := trace.WriteReceivedFile(simReceivedOut, received); err != nil {
				logrus.Fatalf("Failed to write received trace: %v", err)
			}
		}

		fmt.Println(stats.Line())
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simTracePath, "trace", "", "Path to the input trace file")
	simulateCmd.Flags().StringVar(&simAnnotatedOut, "out-annotated", "", "Path to write the FEC-annotated trace (optional)")
	simulateCmd.Flags().StringVar(&simReceivedOut, "out-received", "", "Path to write the received-side trace (optional)")
	simulateCmd.Flags().StringVar(&simStrategy, "strategy", "A", "FEC strategy: A, B, C, or D")
	simulateCmd.Flags().IntVar(&simWindowSize, "window-size", 32, "Strategy C/D window size")
	simulateCmd.Flags().IntVar(&simBlockSize, "block-size", 10, "Strategy B block size")
	simulateCmd.Flags().Float64Var(&simLossRate, "loss-rate", 0.0, "Per-packet loss probability in [0,1)")
	simulateCmd.Flags().Float64Var(&simRTT, "rtt", 0.1, "Round-trip time in seconds")
	simulateCmd.Flags().IntVar(&simMaxInflight, "max-inflight", 20, "Per-direction in-flight packet ceiling")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "RNG seed")
	simulateCmd.Flags().Float64Var(&simExternalFEC, "external-fec-rate", 0.0, "Fraction of real packets relabeled as dummy before injection")
	_ = simulateCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(simulateCmd)
}
