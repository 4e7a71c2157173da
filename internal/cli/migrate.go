package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			if err := db.Migrate(d); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{"status": "migrated", "driver": string(d.Dialect)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database schema is up to date (%s).\n", d.Dialect)
			return nil
		},
	}
}
