package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weave/internal/config"
	"weave/internal/ui"
)

func configCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize the configuration",
	}

	configCmd.AddCommand(configPathCmd(), configInitCmd())

	return configCmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config and data locations",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			fmt.Printf("  config: %s\n", ui.Info.Sprint(config.ConfigDir()))
			fmt.Printf("  data:   %s\n", ui.Info.Sprint(cfg.BoardDir()))
		},
	}
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file if none exists",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.EnsureExists(); err != nil {
				ui.Bad.Printf("  Failed to write config: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Config ready in %s\n", ui.StatusIcon(true), config.ConfigDir())
		},
	}
}
