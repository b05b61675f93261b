package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"winloss_server/internal/winloss"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config.yaml>...",
		Short: "Validate outcome-control configurations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				cfg, err := loadConfig(path)
				if err == nil {
					err = winloss.ValidateVariantConfig(cfg)
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d configs invalid", failed, len(args))
			}
			return nil
		},
	}
}
