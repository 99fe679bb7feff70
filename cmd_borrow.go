package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"library-client/api"
	"library-client/library"
	"library-client/session"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Your loans, recent searches and hot keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.lm.Require(session.RoleUser)
			if err != nil {
				return err
			}
			records, err := a.lm.MyBorrows(ctx)
			if err != nil {
				return err
			}
			r := a.renderer()
			r.Message("Welcome back, %s.", s.Username)
			if err := r.Borrows(records); err != nil {
				return err
			}

			// The side panels never fail the dashboard.
			if items, err := a.lm.SearchHistory(ctx); err == nil {
				r.Message("\nRecent searches:")
				r.History(items)
			} else if errors.Is(err, api.ErrUnauthorized) {
				return err
			} else {
				a.logger.Debug("dashboard history", zap.Error(err))
			}
			if hot, err := a.lm.HotKeywords(ctx, a.lm.HotTopN()); err == nil {
				r.Message("\nHot keywords:")
				r.HotKeywords(hot)
			}
			return nil
		},
	}
}

func newBorrowsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrows",
		Short: "List the books you currently have",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.lm.MyBorrows(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer().Borrows(records)
		},
	}
}

func newBorrowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book id>",
		Short: "Borrow a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "book ID")
			if err != nil {
				return err
			}
			d, err := a.lm.BookDetail(ctx, id)
			if err != nil {
				return err
			}
			if d.Current != nil {
				return fmt.Errorf("you already have %q, due %s", d.Book.Title, d.Current.DueDate.Format("2006-01-02"))
			}
			trigger := library.NewTrigger(d.Borrow)
			if !trigger.State().Enabled {
				return fmt.Errorf("cannot borrow %q: %s", d.Book.Title, d.Borrow.Label)
			}
			next, err := a.lm.Borrow(ctx, d.Book, trigger)
			if err != nil {
				return err
			}
			r := a.renderer()
			r.Message("Borrowed %q.", d.Book.Title)
			return r.BookDetail(next)
		},
	}
}

func newReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <record id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "record ID")
			if err != nil {
				return err
			}
			records, err := a.lm.MyBorrows(ctx)
			if err != nil {
				return err
			}
			rec, ok := library.FindBorrow(records, id)
			if !ok {
				return fmt.Errorf("no current loan with record ID %d", id)
			}
			if err := a.lm.ReturnBook(ctx, rec); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Returned %q.\n", rec.BookTitle)

			records, err = a.lm.MyBorrows(ctx)
			if err != nil {
				return err
			}
			return a.renderer().Borrows(records)
		},
	}
}

func newRenewCmd(a *app) *cobra.Command {
	var byBook bool
	cmd := &cobra.Command{
		Use:   "renew <record id>",
		Short: "Renew a loan once for another 30 days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "ID")
			if err != nil {
				return err
			}

			var renewed library.BorrowRecord
			if byBook {
				if renewed, err = a.lm.RenewForBook(ctx, id); err != nil {
					return err
				}
			} else {
				records, err := a.lm.MyBorrows(ctx)
				if err != nil {
					return err
				}
				rec, ok := library.FindBorrow(records, id)
				if !ok {
					return fmt.Errorf("no current loan with record ID %d", id)
				}
				if renewed, err = a.lm.Renew(ctx, rec); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Renewed %q, now due %s.\n", renewed.BookTitle, renewed.DueDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&byBook, "book", false, "treat the ID as a book ID")
	return cmd
}
