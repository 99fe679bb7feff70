package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"library-client/library"
	"library-client/pagination"
)

// searchList makes a search screen the shell's pageable list.
func (a *app) searchList(screen *library.SearchScreen, title string) {
	a.list = &listState{
		change: func(ctx context.Context, n int) error {
			res, err := screen.ChangePage(ctx, n)
			if err != nil {
				return err
			}
			return a.renderer().Books(title, res, screen.Strip())
		},
		current: func() int { return screen.Results().Number },
	}
}

// runSearch runs term on a fresh screen and renders page (1-based).
func (a *app) runSearch(ctx context.Context, screen *library.SearchScreen, run func(context.Context) (pagination.PageResult[library.Book], error), page int) error {
	res, err := run(ctx)
	if err != nil {
		return err
	}
	if page > 1 {
		if res, err = screen.ChangePage(ctx, page-1); err != nil {
			return err
		}
	}
	title := "All books"
	if screen.Term != "" {
		title = fmt.Sprintf("Results for %q", screen.Term)
	}
	a.searchList(screen, title)
	return a.renderer().Books(title, res, screen.Strip())
}

func newBooksCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			screen := a.lm.NewSearchScreen()
			return a.runSearch(cmd.Context(), screen, screen.LoadAll, page)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		page int
		hot  int
	)
	cmd := &cobra.Command{
		Use:   "search [keyword...]",
		Short: "Search the catalog; no keyword lists everything",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen := a.lm.NewSearchScreen()
			if hot > 0 {
				if _, err := screen.RefreshHot(ctx); err != nil {
					return err
				}
				kw, ok := screen.HotAt(hot)
				if !ok {
					return fmt.Errorf("no hot keyword at rank %d", hot)
				}
				return a.runSearch(ctx, screen, func(ctx context.Context) (pagination.PageResult[library.Book], error) {
					return screen.SearchHot(ctx, kw)
				}, page)
			}
			term := strings.Join(args, " ")
			return a.runSearch(ctx, screen, func(ctx context.Context) (pagination.PageResult[library.Book], error) {
				return screen.Search(ctx, term)
			}, page)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().IntVar(&hot, "hot", 0, "search the hot keyword at this rank")
	return cmd
}

func newHotCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "hot",
		Short: "Show the most searched keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if top <= 0 {
				top = a.lm.HotTopN()
			}
			hot, err := a.lm.HotKeywords(cmd.Context(), top)
			if err != nil {
				return err
			}
			return a.renderer().HotKeywords(hot)
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "how many keywords to show")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		remove   string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, prune or clear your search history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch {
			case clearAll:
				if err := a.lm.ClearHistory(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Search history cleared.")
				return nil
			case remove != "":
				if err := a.lm.DeleteHistoryItem(ctx, remove); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed %q from your history.\n", remove)
			}
			items, err := a.lm.SearchHistory(ctx)
			if err != nil {
				return err
			}
			return a.renderer().History(items)
		},
	}
	cmd.Flags().StringVar(&remove, "delete", "", "remove one keyword")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove every keyword")
	return cmd
}

func newBookCmd(a *app) *cobra.Command {
	var related bool
	cmd := &cobra.Command{
		Use:   "book <id>",
		Short: "Show a book with your loan and its borrow count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book ID")
			if err != nil {
				return err
			}
			d, err := a.lm.BookDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			r := a.renderer()
			if err := r.BookDetail(d); err != nil {
				return err
			}
			if !related {
				return nil
			}
			books := a.lm.Related(cmd.Context(), id)
			return r.Books("Related books", pagination.Single(books), nil)
		},
	}
	cmd.Flags().BoolVar(&related, "related", false, "also list related books")
	return cmd
}

func newCoverCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "cover <book id>",
		Short: "Save a book's cover image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book ID")
			if err != nil {
				return err
			}
			raw, mediaType, src, err := a.lm.BookCover(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("cover-%d%s", id, extensionFor(mediaType))
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return fmt.Errorf("save cover: %w", err)
			}
			fmt.Fprintf(a.out, "Saved %s cover to %s (%d bytes).\n", src, out, len(raw))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func extensionFor(mediaType string) string {
	switch {
	case strings.Contains(mediaType, "png"):
		return ".png"
	case strings.Contains(mediaType, "jpeg"), strings.Contains(mediaType, "jpg"):
		return ".jpg"
	case strings.Contains(mediaType, "gif"):
		return ".gif"
	case strings.Contains(mediaType, "svg"):
		return ".svg"
	case strings.Contains(mediaType, "webp"):
		return ".webp"
	}
	return ".img"
}

func newAuthorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "author <name...>",
		Short: "Show an author and their books",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.lm.LoadAuthor(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.renderer().Author(p)
		},
	}
}
