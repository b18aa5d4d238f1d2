package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jrsteele09/go-fittrack-client/identity"
	"github.com/jrsteele09/go-fittrack-client/registration"
	"github.com/jrsteele09/go-fittrack-client/session"
	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			if username == "" {
				if username, err = c.prompt("Username", ""); err != nil {
					return err
				}
			}
			password, err := c.password("Password")
			if err != nil {
				return err
			}
			if err := a.Session.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			snap := a.Session.Snapshot()
			c.success("Logged in as %s", displayName(snap))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Session.Logout(); err != nil {
				return err
			}
			c.success("Logged out")
			return nil
		},
	}
}

func newRegisterCmd(c *cli) *cobra.Command {
	var req registration.Request
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			for _, field := range []struct {
				label string
				value *string
			}{
				{"Username", &req.Username},
				{"Email", &req.Email},
				{"First name", &req.FirstName},
				{"Last name", &req.LastName},
			} {
				if *field.value != "" {
					continue
				}
				if *field.value, err = c.prompt(field.label, ""); err != nil {
					return err
				}
			}
			if req.Password, err = c.password("Password"); err != nil {
				return err
			}
			if _, err := a.Session.Register(cmd.Context(), req); err != nil {
				return err
			}
			c.success(registration.SuccessMessage)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			snap := a.Session.Snapshot()
			switch snap.Status {
			case session.StatusAuthenticated:
				c.printf("  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
				c.printf("  User:      %s\n", displayName(snap))
				c.printf("  User ID:   %s\n", snap.SubjectID)
				if expiry, ok := identity.TokenExpiry(snap.AccessToken); ok {
					c.printf("  Expires:   %s\n", formatExpiry(expiry))
				}
			case session.StatusFailed:
				c.printf("  Status:    %s\n", text.FgRed.Sprint("Unavailable"))
				c.printf("             %s\n", snap.LastError)
			default:
				c.printf("  Status:    %s\n", text.FgYellow.Sprint("Not logged in"))
				c.printf("             Run: fittrack login\n")
			}
			return nil
		},
	}
}

func displayName(s session.Session) string {
	if s.User != nil {
		if name := s.User.DisplayName(); name != "" {
			return name
		}
	}
	return s.SubjectID
}

func formatExpiry(t time.Time) string {
	remaining := time.Until(t).Round(time.Second)
	if remaining <= 0 {
		return text.FgYellow.Sprintf("expired %s ago (the next request will log you out)", (-remaining).String())
	}
	return t.Local().Format(time.RFC1123) + " (in " + remaining.String() + ")"
}
