package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, config files, .env, the
environment and flags. Credentials are masked.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, warnings, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := config.MarshalYAML(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = out.Write(data)
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}
