package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-client/library"
)

func newReadCmd(a *app) *cobra.Command {
	var (
		page        int
		download    bool
		out         string
		clearScreen bool
	)
	cmd := &cobra.Command{
		Use:   "read <book id>",
		Short: "Read a book's online content page by page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "book ID")
			if err != nil {
				return err
			}

			if download {
				raw, name, err := a.lm.Download(ctx, id)
				if err != nil {
					return err
				}
				if out == "" {
					out = name
				}
				if err := os.WriteFile(out, raw, 0o644); err != nil {
					return fmt.Errorf("save content: %w", err)
				}
				fmt.Fprintf(a.out, "Saved %s (%d bytes).\n", out, len(raw))
				return nil
			}

			r := a.lm.NewReader(id, a.stdinReader(), a.out)
			r.Clear = clearScreen
			err = r.Run(ctx, page)
			if errors.Is(err, library.ErrNoReadPermission) {
				fmt.Fprintf(a.errOut, "Borrow the book first: run 'borrow %d'.\n", id)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to start on")
	cmd.Flags().BoolVar(&download, "download", false, "save the content file instead of reading")
	cmd.Flags().StringVarP(&out, "out", "o", "", "file name for --download (defaults to the server's)")
	cmd.Flags().BoolVar(&clearScreen, "clear", true, "clear the screen between pages")
	return cmd
}
