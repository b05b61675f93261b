package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"winloss_server/internal/domain"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "winlossctl",
		Short: "Offline tools for outcome-control configurations",
		Long: `winlossctl works on outcome-control configurations without a running server.

It provides:
  - validate: check a YAML configuration against the same rules the admin API applies
  - simulate: replay a number of settlements through the engine and report the statistics

Example:
  winlossctl simulate --config variant1.yaml --trades 200 --seed 7`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newValidateCmd(),
		newSimulateCmd(),
	)
	return cmd
}

// loadConfig reads a WinLossConfig from YAML. Unknown keys are rejected so typos do
// not silently fall back to zero values.
func loadConfig(path string) (domain.WinLossConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.WinLossConfig{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg domain.WinLossConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return domain.WinLossConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
