package main

import (
	"fmt"

	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func accountStatus(u user.User) string {
	switch {
	case u.IsDeactivated:
		return "deactivated"
	case u.IsActive:
		return "active"
	default:
		return "inactive"
	}
}

func newUsersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Short:   "List users",
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := e.ws.Users.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			rows := pterm.TableData{{"ID", "Name", "Email", "Role", "Status"}}
			for _, u := range list {
				rows = append(rows, []string{u.ID, u.Name, u.Email, string(u.Role), colorStatus(accountStatus(u))})
			}
			return table(e.out, "Users", rows)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "toggle <id>",
		Short:   "Activate an inactive user or deactivate an active one",
		Args:    cobra.ExactArgs(1),
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := e.ws.Users.ToggleStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			success(e.out, "%s is now %s", u.Email, colorStatus(accountStatus(u)))
			return nil
		},
	})
	return cmd
}
