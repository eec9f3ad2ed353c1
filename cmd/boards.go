package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weave/internal/ui"
)

func boardsCmd() *cobra.Command {
	boardsCmd := &cobra.Command{
		Use:   "boards",
		Short: "Manage saved boards",
	}

	boardsCmd.AddCommand(
		boardsListCmd(),
		boardsNewCmd(),
		boardsRenameCmd(),
		boardsRmCmd(),
		boardsHistoryCmd(),
	)

	return boardsCmd
}

func boardsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List boards and what is on them",
		Run: func(cmd *cobra.Command, args []string) {
			_, db, boards, err := openStore()
			if err != nil {
				ui.Bad.Printf("  Failed to open store: %v\n", err)
				os.Exit(1)
			}
			defer db.Close()

			list, err := boards.ListBoards()
			if err != nil {
				ui.Bad.Printf("  Failed to list boards: %v\n", err)
				os.Exit(1)
			}
			if len(list) == 0 {
				ui.Subtle.Println("  No boards yet — run `weave` and press 'n' to create one")
				return
			}

			rows := make([][]string, 0, len(list))
			for _, b := range list {
				st, err := boards.LoadState(b.ID)
				if err != nil {
					ui.Warn.Printf("  Skipping %s: %v\n", b.Name, err)
					continue
				}
				rows = append(rows, []string{
					b.Name,
					fmt.Sprint(len(st.Nodes)),
					fmt.Sprint(len(st.Edges)),
					b.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			ui.Table([]string{"NAME", "BOXES", "CONNECTIONS", "UPDATED"}, rows)
		},
	}
}

func boardsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <NAME>",
		Short: "Create an empty board",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, db, boards, err := openStore()
			if err != nil {
				ui.Bad.Printf("  Failed to open store: %v\n", err)
				os.Exit(1)
			}
			defer db.Close()

			b, err := boards.CreateBoard(args[0])
			if err != nil {
				ui.Bad.Printf("  Failed to create board: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Created %s\n", ui.StatusIcon(true), b.Name)
		},
	}
}

func boardsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <BOARD> <NEW_NAME>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			_, db, boards, err := openStore()
			if err != nil {
				ui.Bad.Printf("  Failed to open store: %v\n", err)
				os.Exit(1)
			}
			defer db.Close()

			b, err := boards.FindBoard(args[0])
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if err := boards.RenameBoard(b.ID, args[1]); err != nil {
				ui.Bad.Printf("  Failed to rename: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s %s is now %s\n", ui.StatusIcon(true), b.Name, args[1])
		},
	}
}

func boardsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <BOARD>",
		Short: "List a board's autosave snapshots",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, db, boards, err := openStore()
			if err != nil {
				ui.Bad.Printf("  Failed to open store: %v\n", err)
				os.Exit(1)
			}
			defer db.Close()

			b, err := boards.FindBoard(args[0])
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			snaps, err := boards.History(b.ID)
			if err != nil {
				ui.Bad.Printf("  Failed to read history: %v\n", err)
				os.Exit(1)
			}
			if len(snaps) == 0 {
				ui.Subtle.Println("  No snapshots yet — autosave records them as you edit")
				return
			}

			rows := make([][]string, 0, len(snaps))
			for _, sn := range snaps {
				st, err := boards.LoadSnapshot(sn.ID)
				if err != nil {
					ui.Warn.Printf("  Skipping snapshot %d: %v\n", sn.ID, err)
					continue
				}
				rows = append(rows, []string{
					fmt.Sprint(sn.ID),
					sn.SavedAt.Format("2006-01-02 15:04:05"),
					fmt.Sprint(len(st.Nodes)),
					fmt.Sprint(len(st.Edges)),
				})
			}
			ui.Table([]string{"ID", "SAVED", "BOXES", "CONNECTIONS"}, rows)
		},
	}
}

func boardsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <BOARD>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a board and its saved state",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, db, boards, err := openStore()
			if err != nil {
				ui.Bad.Printf("  Failed to open store: %v\n", err)
				os.Exit(1)
			}
			defer db.Close()

			b, err := boards.FindBoard(args[0])
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if err := boards.DeleteBoard(b.ID); err != nil {
				ui.Bad.Printf("  Failed to delete: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Deleted %s\n", ui.StatusIcon(true), b.Name)
		},
	}
}
