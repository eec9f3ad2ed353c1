package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"weave/internal/config"
	"weave/internal/editor"
	"weave/internal/store"
	"weave/internal/ui"
)

var version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "weave [board]",
	Short: "weave — an infinite board for notes, threads and images",
	Long: ui.Brand.Sprint("weave") + " — an infinite board for notes, threads and images\n" +
		ui.Subtle.Sprint("Arrange boxes on a zoomable canvas, connect them, and export the result"),
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !config.Load().UI.Color {
			color.NoColor = true
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cfg, db, boards, err := openStore()
		if err != nil {
			ui.Bad.Printf("weave: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		var board *store.Board
		if len(args) == 1 {
			b, err := boards.FindBoard(args[0])
			if err != nil {
				ui.Bad.Printf("weave: %v\n", err)
				os.Exit(1)
			}
			board = &b
		}

		m, err := editor.New(cfg, boards, board)
		if err != nil {
			ui.Bad.Printf("weave: %v\n", err)
			os.Exit(1)
		}
		if err := m.Run(); err != nil {
			ui.Bad.Printf("weave: %v\n", err)
			os.Exit(1)
		}
	},
}

// openStore loads the config and opens the board database it points at.
func openStore() (*config.Config, *store.DB, *store.BoardStore, error) {
	cfg := config.Load()
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, store.NewBoardStore(db), nil
}

func init() {
	rootCmd.SetVersionTemplate("weave {{ .Version }}\n")
	rootCmd.AddCommand(
		boardsCmd(),
		exportCmd(),
		configCmd(),
	)
}

func Execute() error {
	return rootCmd.Execute()
}
