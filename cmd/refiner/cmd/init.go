package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a commented default configuration to .refiner.yaml in the current
directory, or to ~/.config/refiner/config.yaml with --global.

Credentials are better left to the environment (OPEN_AI_TOKEN, JIRA_URL,
JIRA_EMAIL, JIRA_TOKEN, API_TOKEN) or a .env file.`,
	RunE: runInit,
}

var (
	initForce  bool
	initGlobal bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "Write the per-user configuration instead")
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, err := initTarget()
	if err != nil {
		return err
	}

	if err := config.WriteDefault(path, initForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func initTarget() (string, error) {
	if initGlobal {
		return config.UserConfigPath()
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return filepath.Join(cwd, config.ProjectConfigFile), nil
}
