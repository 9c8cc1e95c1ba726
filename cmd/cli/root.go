package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/paydesk/infra/initializer"
	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/config"
	charmlog "github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// sessionID is the fixed session the CLI persists under.
const sessionID = "cli"

var errNotSignedIn = errors.New("not signed in, run `paydesk login` first")

// env is what every command runs against. Tests fill ws directly.
type env struct {
	ws      *app.Workspace
	out     io.Writer
	close   func()
	verbose bool
	noColor bool
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "paydesk",
		Short:         "paydesk is a terminal client for the Chapa payment dashboard",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if e.out == nil {
				e.out = cmd.OutOrStdout()
			}
			if e.noColor || config.GetEnvAsBool("NO_COLOR", false) {
				color.NoColor = true
			}
			if e.ws != nil {
				return nil
			}
			return e.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.close != nil {
				e.close()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Log at info level")
	root.PersistentFlags().BoolVar(&e.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newTransactionsCmd(e),
		newWalletCmd(e),
		newTransfersCmd(e),
		newTransferCmd(e),
		newVerifyCmd(e),
		newUsersCmd(e),
		newBanksCmd(e),
		newPayCmd(e),
	)
	return root
}

// open loads the configuration, builds the workspace and restores the saved
// session.
func (e *env) open(ctx context.Context) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.UseLocalFile("paydesk.db"); err != nil {
		return fmt.Errorf("failed to prepare local store: %w", err)
	}

	level := charmlog.WarnLevel
	if e.verbose {
		level = charmlog.InfoLevel
	}
	cfg.Log.Level = int(level)
	cfg.Log.Format = "text"
	logger := initializer.NewLogger(cfg.Log, os.Stderr)

	deps, err := initializer.Build(cfg, logger)
	if err != nil {
		return err
	}
	ws, err := app.NewWorkspace(deps, sessionID)
	if err != nil {
		_ = deps.Close()
		return err
	}
	if _, err := ws.Auth.Restore(ctx); err != nil {
		slog.Default().Debug("Saved session is no longer valid", "error", err)
	}
	e.ws = ws
	e.close = func() {
		ws.Cache.Wait()
		_ = deps.Close()
	}
	return nil
}

// requireSession is the PreRunE of commands that need a signed-in user.
func (e *env) requireSession(*cobra.Command, []string) error {
	if _, ok := e.ws.Auth.Me(); !ok {
		return errNotSignedIn
	}
	return nil
}
