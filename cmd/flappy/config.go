package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-neat/internal/config"
)

var (
	flagWriteConfig string
	flagEffective   bool
)

var configCmd = &cobra.Command{
	Use:   "config [manual|batch]",
	Short: "Print or write the default configuration",
	Long: `Print the embedded default parameters for a run mode (batch when omitted).
With --effective the configuration that commands would actually use is
printed instead, after searching --config, ~/.flappy/configs and ./configs.

Examples:
  flappy config
  flappy config manual --write ~/.flappy/configs/manual.yaml
  flappy config batch --effective --config ./tuned.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&flagWriteConfig, "write", "", "Write the configuration to a file instead of stdout")
	configCmd.Flags().BoolVar(&flagEffective, "effective", false, "Show the loaded configuration with overrides")
}

func runConfig(cmd *cobra.Command, args []string) error {
	mode := config.ModeBatch
	if len(args) == 1 {
		m, err := config.ParseMode(args[0])
		if err != nil {
			return err
		}
		mode = m
	}

	var data []byte
	if flagEffective {
		cfg, err := loadConfig(mode)
		if err != nil {
			return err
		}
		if data, err = cfg.Encode(); err != nil {
			return err
		}
	} else {
		data = config.DefaultYAML(mode)
	}

	if flagWriteConfig == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flagWriteConfig, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", flagWriteConfig, err)
	}
	fmt.Printf("Wrote %s config to %s\n", mode, flagWriteConfig)
	return nil
}
