package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/catalog"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load the checklist catalog from a YAML file",
		Long: `Load features, details and sub-details from a YAML file.
Existing rows with the same ids are updated; other rows are left alone.

Example file:
  features:
    - id: F1
      name: Display
      details:
        - id: D1
          name: Rak depan
          sub_details:
            - id: S1
              name: Produk terpajang`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0])
		},
	}
}

func runSeed(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening catalog file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing %s: %v\n", path, cerr)
		}
	}()

	d, err := openConfiguredDB()
	if err != nil {
		return err
	}
	defer closeDB(d)

	res, err := catalog.Seed(cmd.Context(), d, f)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d features, %d details, %d sub-details.\n",
		res.Features, res.Details, res.SubDetails)
	return nil
}
