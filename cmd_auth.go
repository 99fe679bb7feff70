package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"library-client/library"
	"library-client/session"
)

func newLoginCmd(a *app) *cobra.Command {
	var asAdmin bool
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				var err error
				if name, err = a.readLine("Username: "); err != nil {
					return err
				}
			}
			password, err := a.readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			userType := session.RoleUser
			if asAdmin {
				userType = session.RoleAdmin
			}
			s, msg, err := a.lm.Login(cmd.Context(), library.Credentials{Name: name, Password: password, UserType: userType})
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Login successful"
			}
			fmt.Fprintf(a.out, "%s. Welcome, %s (%s).\n", msg, s.Username, s.Role)
			fmt.Fprintf(a.out, "Run '%s' to continue.\n", homeCommand(s.Role))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asAdmin, "admin", false, "sign in as an administrator")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.lm.Logout(); err != nil {
				return err
			}
			a.list, a.review = nil, nil
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := a.lm.CurrentSession()
			if !ok {
				fmt.Fprintln(a.out, "Not logged in.")
				return nil
			}
			id := s.UserIDString()
			if id == "" {
				id = "unknown"
			}
			fmt.Fprintf(a.out, "%s (%s), user id %s\n", s.Username, s.Role, id)
			if s.TokenExpired(a.lm.Now()) {
				fmt.Fprintln(a.out, "The stored login has expired.")
			}
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		r       library.Registration
		asAdmin bool
	)
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.Username = args[0]
			if r.Email == "" {
				var err error
				if r.Email, err = a.readLine("Email: "); err != nil {
					return err
				}
			}
			password, err := a.readPassword(fmt.Sprintf("Enter password for %s: ", r.Username))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			again, err := a.readPassword("Repeat password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password != again {
				return &library.ValidationError{Field: "password", Message: "passwords do not match"}
			}
			r.Password = password
			if asAdmin {
				r.UserType = session.RoleAdmin
			}

			msg, err := a.lm.Register(cmd.Context(), r)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Registration successful"
			}
			fmt.Fprintf(a.out, "%s. You can now run 'login %s'.\n", msg, r.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&r.Email, "email", "", "email address")
	cmd.Flags().StringVar(&r.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&r.Phone, "phone", "", "phone number")
	cmd.Flags().BoolVar(&asAdmin, "admin", false, "request an administrator account")
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("email") {
				if err := a.lm.UpdateEmail(cmd.Context(), email); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Profile saved.")
			}
			u, err := a.lm.Profile(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer().Profile(u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "set a new email address (empty clears it)")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.lm.Require(""); err != nil {
				return err
			}
			var p library.PasswordChange
			var err error
			if p.Old, err = a.readPassword("Current password: "); err != nil {
				return err
			}
			if p.New, err = a.readPassword("New password: "); err != nil {
				return err
			}
			if p.Confirm, err = a.readPassword("Confirm new password: "); err != nil {
				return err
			}
			if err := a.lm.ChangePassword(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password changed.")
			return nil
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	var (
		notify   bool
		theme    string
		language string
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change your preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.lm.Settings(ctx)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("notify") || fs.Changed("theme") || fs.Changed("language") {
				if fs.Changed("notify") {
					st.EmailNotifications = notify
				}
				if fs.Changed("theme") {
					st.Theme = theme
				}
				if fs.Changed("language") {
					st.Language = language
				}
				if err := a.lm.SaveSettings(ctx, st); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Settings saved.")
			}
			return a.renderer().Settings(st)
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "email notifications on or off")
	cmd.Flags().StringVar(&theme, "theme", "", "light, dark or auto")
	cmd.Flags().StringVar(&language, "language", "", "interface language, e.g. zh-CN or en-US")
	return cmd
}
