package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/forms"
	"github.com/idilsaglam/tada/internal/session"
	"github.com/idilsaglam/tada/internal/ui"
)

func newSignupCmd(a *app) *cobra.Command {
	var f forms.Signup
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.server(); err != nil {
				return err
			}
			if err := a.ask(&f,
				question{key: "name", label: "Name", value: &f.Name},
				question{key: "email", label: "Email", value: &f.Email},
				question{key: "password", label: "Password", secret: true, value: &f.Password},
			); err != nil {
				return err
			}
			if err := forms.Validate(&f); err != nil {
				return err
			}
			if err := a.sess.Signup(cmd.Context(), f.Name, f.Email, f.Password); err != nil {
				return failed("signup failed", err)
			}
			ui.OK(a.opt.Stdout, "signed up as "+f.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "display name")
	cmd.Flags().StringVar(&f.Email, "email", "", "email address")
	cmd.Flags().StringVar(&f.Password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var f forms.Login
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.server(); err != nil {
				return err
			}
			if err := a.ask(&f,
				question{key: "email", label: "Email", value: &f.Email},
				question{key: "password", label: "Password", secret: true, value: &f.Password},
			); err != nil {
				return err
			}
			if err := forms.Validate(&f); err != nil {
				return err
			}
			if err := a.sess.Login(cmd.Context(), f.Email, f.Password); err != nil {
				return failed("login failed", err)
			}
			ui.OK(a.opt.Stdout, "logged in as "+f.Email)
			if a.sess.Source() == session.SourceEnv {
				ui.Muted(a.opt.Stdout, "note: TADA_TOKEN is set and takes precedence")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Email, "email", "", "email address")
	cmd.Flags().StringVar(&f.Password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.Logout(); err != nil {
				return failed("logout", err)
			}
			a.todos.Reset()
			if a.sess.Source() == session.SourceEnv {
				ui.OK(a.opt.Stdout, "logged out (token is still provided by TADA_TOKEN)")
				return nil
			}
			ui.OK(a.opt.Stdout, "logged out")
			return nil
		},
	}
}

func newForgotCmd(a *app) *cobra.Command {
	var f forms.Forgot
	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Request a password reset",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.server(); err != nil {
				return err
			}
			if err := a.ask(&f, question{key: "email", label: "Email", value: &f.Email}); err != nil {
				return err
			}
			if err := forms.Validate(&f); err != nil {
				return err
			}
			res, err := a.client.Forgot(cmd.Context(), f.Email)
			if err != nil {
				return failed("reset request failed", err)
			}
			if !res.HasResetToken() {
				ui.OK(a.opt.Stdout, res.Message)
				return nil
			}
			ui.OK(a.opt.Stdout, "reset token issued")
			lines := []string{"token:   " + res.ResetToken}
			if res.ExpiresAt != "" {
				lines = append(lines, "expires: "+res.ExpiresAt)
			}
			ui.Panel(a.opt.Stdout, lines)
			ui.Muted(a.opt.Stdout, "Run: todo reset --token "+res.ResetToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Email, "email", "", "account email")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	var f forms.Reset
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token and sign in",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.server(); err != nil {
				return err
			}
			if err := a.ask(&f,
				question{key: "token", label: "Reset token", value: &f.Token},
				question{key: "password", label: "New password", secret: true, value: &f.Password},
			); err != nil {
				return err
			}
			if err := forms.Validate(&f); err != nil {
				return err
			}
			res, err := a.client.Reset(cmd.Context(), f.Token, f.Password)
			if err != nil {
				return failed("reset failed", err)
			}
			if err := a.sess.SetSession(res.User, res.Token); err != nil {
				return failed("save session", err)
			}
			ui.OK(a.opt.Stdout, "password updated, logged in as "+res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Token, "token", "", "reset token from `todo forgot`")
	cmd.Flags().StringVar(&f.Password, "password", "", "new password (prompted when omitted)")
	return cmd
}

// newWhoamiCmd decodes the token locally; the signature is not checked.
func newWhoamiCmd(a *app, use string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Show the signed-in user and token details",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.sess.Authenticated() {
				return errNoSession
			}
			lines := []string{}
			if u, ok := a.sess.User(); ok {
				lines = append(lines, fmt.Sprintf("user:    %s <%s>", u.Name, u.Email), "id:      "+u.ID)
			} else {
				lines = append(lines, "user:    (unknown)")
			}
			lines = append(lines, "source:  "+a.sess.Source())

			c := session.Claims(a.sess.Token())
			if c.Opaque {
				lines = append(lines, "token:   opaque (cannot introspect locally)")
			} else {
				lines = append(lines, "token:   JWT")
				if c.Subject != "" {
					lines = append(lines, "subject: "+c.Subject)
				}
				switch {
				case c.ExpiresAt == nil:
					lines = append(lines, "expires: (unknown)")
				case c.Expired(a.now()):
					lines = append(lines, "expires: "+c.ExpiresAt.UTC().Format(time.RFC3339)+" (expired)")
				default:
					lines = append(lines, "expires: "+c.ExpiresAt.UTC().Format(time.RFC3339))
				}
			}
			lines = append(lines, "env override: TADA_TOKEN")
			ui.Panel(a.opt.Stdout, lines)
			return nil
		},
	}
}

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Session commands",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return usagef("usage: todo auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(newLoginCmd(a), newLogoutCmd(a), newWhoamiCmd(a, "status"), newWhoamiCmd(a, "whoami"))
	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s takes no arguments", cmd.CommandPath())
	}
	return nil
}

func exactID(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usagef("usage: %s <id>", cmd.CommandPath())
	}
	return nil
}
