package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atlas-vision/atlas/internal/config"
)

var useCmd = &cobra.Command{
	Use:   "use [profile-name]",
	Short: "Switch to a profile and start the app",
	Long:  `Switch to the specified profile and immediately start Atlas Vision.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Use(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		// reload so the new profile is validated and env overrides apply
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return runApp(cfg)
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
