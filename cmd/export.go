package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"weave/internal/content"
	"weave/internal/export"
	"weave/internal/ui"
)

func exportCmd() *cobra.Command {
	var out string
	var scale, padding float64

	exportCmd := &cobra.Command{
		Use:   "export <BOARD>",
		Short: "Render a board to a PNG file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, db, boards, err := openStore()
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
			st, err := boards.LoadState(b.ID)
			if err != nil {
				ui.Bad.Printf("  Failed to load board: %v\n", err)
				os.Exit(1)
			}

			opts := export.Options{Scale: cfg.Export.Scale, Padding: cfg.Export.Padding}
			if cmd.Flags().Changed("scale") {
				opts.Scale = scale
			}
			if cmd.Flags().Changed("padding") {
				opts.Padding = padding
			}

			// Mount linked content so box bodies render into the image.
			if lib, err := content.NewLibrary(filepath.Join(cfg.BoardDir(), "content"), nil, nil); err == nil {
				defer lib.Close()
				for _, n := range st.Nodes {
					if n.Ref != "" {
						lib.Mount(n.Kind, n.Ref)
					}
				}
				opts.Bodies = lib.Body
			}

			path := out
			if path == "" {
				path = exportOutputName(b.Name)
			}
			if err := export.PNG(path, st, cfg.Engine(), opts); err != nil {
				ui.Bad.Printf("  Export failed: %v\n", err)
				os.Exit(1)
			}
			if err := boards.RecordExport(b.ID, path); err != nil {
				ui.Warn.Printf("  Export not recorded: %v\n", err)
			}
			ui.Good.Printf("  %s Exported %s to %s\n", ui.StatusIcon(true), b.Name, path)
		},
	}

	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <board>.png)")
	exportCmd.Flags().Float64Var(&scale, "scale", 1.0, "render scale")
	exportCmd.Flags().Float64Var(&padding, "padding", 40, "padding around the board in canvas units")

	return exportCmd
}

// exportOutputName turns a board name into a safe PNG filename in the
// current directory.
func exportOutputName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '/':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "board.png"
	}
	return b.String() + ".png"
}
