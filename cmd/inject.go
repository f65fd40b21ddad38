package cmd

import (
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tracefec/tracefec/sim/fec"
	"github.com/tracefec/tracefec/sim/trace"
)

var (
	injTracePath  string
	injOut        string
	injStrategy   string
	injWindowSize int
	injBlockSize  int
	injSeed       int64
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Run only the FEC injector pass and write the annotated trace",
	Run: func(cmd *cobra.Command, args []string) {
		strategy, ok := trace.ParseStrategy(injStrategy)
		if !ok {
			logrus.Fatalf("Invalid strategy: %s", injStrategy)
		}

		packets, err := trace.ReadFile(injTracePath)
		if err != nil {
			logrus.Fatalf("Failed to read trace: %v", err)
		}

		cfg := fec.Config{Strategy: strategy, WindowSize: injWindowSize, BlockSize: injBlockSize}
		rng := rand.New(rand.NewSource(injSeed))
		if err := fec.Run(packets, cfg, rng); err != nil {
			logrus.Fatalf("Injection failed: %v", err)
		}

		if err := trace.WriteFile(injOut, packets); err != nil {
			logrus.Fatalf("Failed to write annotated trace: %v", err)
		}
		logrus.Infof("Wrote annotated trace to %s", injOut)
	},
}

func init() {
	injectCmd.Flags().StringVar(&injTracePath, "trace", "", "Path to the input trace file")
	injectCmd.Flags().StringVar(&injOut, "out", "", "Path to write the FEC-annotated trace")
	injectCmd.Flags().StringVar(&injStrategy, "strategy", "A", "FEC strategy: A, B, C, or D")
	injectCmd.Flags().IntVar(&injWindowSize, "window-size", 32, "Strategy C/D window size")
	injectCmd.Flags().IntVar(&injBlockSize, "block-size", 10, "Strategy B block size")
	injectCmd.Flags().Int64Var(&injSeed, "seed", 0, "RNG seed for the injector's own draws")
	_ = injectCmd.MarkFlagRequired("trace")
	_ = injectCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(injectCmd)
}
