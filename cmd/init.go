package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recall-dev/recall/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .recall.yml config file interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists; remove it first to reinitialize", cfgFile)
		}

		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}

		fmt.Printf("Wrote %s. Run `recall index` to build the index.\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
