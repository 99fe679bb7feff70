package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"library-client/library"
	"library-client/pagination"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin dashboard and management commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ov, err := a.lm.Overview(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer().Overview(ov)
		},
	}
	cmd.AddCommand(
		newAdminUsersCmd(a),
		newAdminDeleteUserCmd(a),
		newAdminBorrowsCmd(a),
		newAdminReturnCmd(a),
	)
	return cmd
}

func newAdminUsersCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl := pagination.NewController(a.lm.PageSize(), a.lm.Users)
			return showList(cmd.Context(), a, ctl, page, "", a.renderer().Users)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}

func newAdminDeleteUserCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-user <user id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user ID")
			if err != nil {
				return err
			}
			if !yes && !a.confirm(fmt.Sprintf("Delete user %d?", id)) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			msg, err := a.lm.DeleteUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = fmt.Sprintf("User %d deleted", id)
			}
			fmt.Fprintf(a.out, "%s.\n", msg)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newAdminBorrowsCmd(a *app) *cobra.Command {
	var (
		status string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "borrows",
		Short: "List every loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := strings.ToLower(strings.TrimSpace(status))
			switch filter {
			case library.BorrowFilterAll, library.BorrowFilterActive, library.BorrowFilterReturned:
			default:
				return fmt.Errorf("unknown status %q (want active or returned)", status)
			}
			ctl := pagination.NewController(a.lm.PageSize(), a.lm.AdminBorrows)
			return showList(cmd.Context(), a, ctl, page, filter, a.renderer().AdminBorrows)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "active or returned")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}

func newAdminReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <record id>",
		Short: "Mark a loan returned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "record ID")
			if err != nil {
				return err
			}
			if err := a.lm.ForceReturn(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Record %d marked returned.\n", id)
			return nil
		},
	}
}
