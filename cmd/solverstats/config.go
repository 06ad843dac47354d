package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after merging config files, environment variables and flags.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}

		_, err = cmd.OutOrStdout().Write(data)

		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
