package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/config"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/daemon"
)

func main() {
	var cfg config.Config
	cmd := &cobra.Command{
		Use:   "priority-fee-estimator",
		Short: "Start the priority fee estimator server",
		Long: "Ingests a stream of Solana transaction events and serves percentile-based " +
			"priority fee estimates over JSON RPC",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := cfg.SetValues(os.LookupEnv); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			d, err := daemon.New(&cfg)
			if err != nil {
				return err
			}
			return d.Run(context.Background())
		},
	}
	cmd.Flags().AddFlagSet(cfg.Flags())

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
