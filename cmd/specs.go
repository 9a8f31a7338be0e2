package main

import (
	"fmt"

	specsadapter "github.com/restartfu/grid-bench/internal/adapters/specs"
	"github.com/restartfu/grid-bench/internal/report"
	"github.com/spf13/cobra"
)

func newSpecsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "specs",
		Short: "Print the host's hardware facts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			reader := specsadapter.NewReader(cfg.SampleInterval)
			hostSpecs, err := reader.ReadSpecs(cmd.Context())
			if err != nil {
				return fmt.Errorf("read specs: %w", err)
			}
			return report.GenerateSpecs(cmd.OutOrStdout(), hostSpecs)
		},
	}
}
