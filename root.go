package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. The shell builds a fresh tree for
// every line so flag values never leak from one line to the next; flag
// defaults are the app's current values for the same reason.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Terminal client for the library service",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.apiURL, "api", a.apiURL, "service base URL (overrides LIBRARY_API_URL)")
	pf.StringVar(&a.sessionDB, "session-db", a.sessionDB, "session file (overrides LIBRARY_SESSION_DB)")
	pf.StringVar(&a.format, "format", a.format, "output format: text or html")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newProfileCmd(a),
		newPasswordCmd(a),
		newSettingsCmd(a),

		newBooksCmd(a),
		newSearchCmd(a),
		newHotCmd(a),
		newHistoryCmd(a),
		newBookCmd(a),
		newCoverCmd(a),
		newAuthorCmd(a),

		newDashboardCmd(a),
		newBorrowsCmd(a),
		newBorrowCmd(a),
		newReturnCmd(a),
		newRenewCmd(a),

		newSubmitCmd(a),
		newSubmissionsCmd(a),
		newReviewCmd(a),
		newApproveCmd(a),
		newRejectCmd(a),

		newAdminCmd(a),
		newReadCmd(a),
		newShellCmd(a),
	)
	return root
}
