package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/visit"
)

func newVisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Inspect stored visits",
	}
	cmd.AddCommand(newVisitShowCmd())
	return cmd
}

func newVisitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id_visit>",
		Short: "Show a visit and its checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			v, err := visit.NewRepository(d).Get(cmd.Context(), args[0])
			if errors.Is(err, visit.ErrNotFound) {
				return fmt.Errorf("visit %s not found", args[0])
			}
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			return printVisit(cmd.OutOrStdout(), v)
		},
	}
}
