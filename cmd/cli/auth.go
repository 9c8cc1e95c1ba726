package main

import (
	"errors"
	"os"

	authsvc "github.com/amirasaad/paydesk/pkg/service/auth"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type loginFlags struct {
	Email    string
	Password string
}

func newLoginCmd(e *env) *cobra.Command {
	flags := &loginFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Long: `Sign in with email and password. Missing values are prompted for
when a terminal is attached.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.Email == "" || flags.Password == "" {
				if err := promptCredentials(flags); err != nil {
					return err
				}
			}
			res, err := e.ws.Auth.Login(cmd.Context(), authsvc.Credentials{Email: flags.Email, Password: flags.Password})
			if err != nil {
				return err
			}
			success(e.out, "Signed in as %s (%s), session valid until %s",
				res.User.Email, res.User.Role, res.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&flags.Password, "password", "p", "", "Account password")
	return cmd
}

func promptCredentials(flags *loginFlags) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("--email and --password are required when not running in a terminal")
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Email").Value(&flags.Email),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&flags.Password),
	))
	return form.Run()
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.ws.Logout(cmd.Context()); err != nil {
				return err
			}
			success(e.out, "Signed out")
			return nil
		},
	}
}
