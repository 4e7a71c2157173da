package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/auth"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage app users",
	}
	cmd.AddCommand(newUserAddCmd(), newUserPasswdCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		supervisorID string
		password     string
		sales        bool
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add a user who can log in from the app",
		Long: `Add a user who can log in from the app.

Examples:
  sfa user add budi --spv SPV01 --password rahasia
  sfa user add sari --spv SPV01 --password rahasia --sales`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			u, err := auth.NewUserStore(d).Add(cmd.Context(), args[0], password, supervisorID, sales)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), u)
			}
			role := "supervisor"
			if u.IsSales {
				role = "sales"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (id %s)\n", role, u.Username, u.SupervisorID)
			return nil
		},
	}

	cmd.Flags().StringVar(&supervisorID, "spv", "", "supervisor id carried in issued tokens")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().BoolVar(&sales, "sales", false, "mark the user as sales staff")
	_ = cmd.MarkFlagRequired("spv")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserPasswdCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Change a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			if err := auth.NewUserStore(d).SetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
