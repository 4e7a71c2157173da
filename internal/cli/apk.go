package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/release"
)

func newAPKCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apk",
		Short: "Manage published app versions",
		Long:  "Manage the app versions that devices check against GET /api/apk-latest.",
	}
	cmd.AddCommand(newAPKAddCmd(), newAPKListCmd(), newAPKLatestCmd(), newAPKRemoveCmd())
	return cmd
}

func newAPKAddCmd() *cobra.Command {
	var (
		code  int64
		url   string
		notes string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "add <version-name>",
		Short: "Publish an app version hosted at a download URL",
		Long: `Publish an app version hosted at a download URL.

Examples:
  sfa apk add 1.4.0 --code 14 --url https://files.example.com/sfa-1.4.0.apk
  sfa apk add 1.5.0 --code 15 --url https://files.example.com/sfa-1.5.0.apk --force --notes "foto toko wajib"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			v, err := release.NewRepository(d).Add(cmd.Context(), release.NewVersion{
				VersionName:  args[0],
				VersionCode:  code,
				DownloadURL:  url,
				ReleaseNotes: notes,
				ForceUpdate:  force,
			})
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s (code %d, id %d)\n", v.VersionName, v.VersionCode, v.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&code, "code", 0, "integer version code; devices update when it is higher than theirs")
	cmd.Flags().StringVar(&url, "url", "", "http(s) download URL of the APK")
	cmd.Flags().StringVar(&notes, "notes", "", "release notes shown to users")
	cmd.Flags().BoolVar(&force, "force", false, "require devices to update before continuing")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newAPKListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published app versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			versions, err := release.NewRepository(d).List(cmd.Context())
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), versions)
			}
			if len(versions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No versions published.")
				return nil
			}
			return printVersionTable(cmd.OutOrStdout(), versions)
		},
	}
}

func newAPKLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the version devices are offered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			v, err := release.NewRepository(d).Latest(cmd.Context())
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			if v == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No versions published.")
				return nil
			}
			return printVersionTable(cmd.OutOrStdout(), []release.Version{*v})
		},
	}
}

func newAPKRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a published app version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version id %q", args[0])
			}

			d, err := openConfiguredDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			if err := release.NewRepository(d).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed version %d\n", id)
			return nil
		},
	}
}

// printVersionTable prints app versions in a tabular text format.
func printVersionTable(out io.Writer, versions []release.Version) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tVERSION\tCODE\tFORCE\tURL"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, v := range versions {
		force := "no"
		if v.IsForceUpdate == 1 {
			force = "yes"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			v.ID, v.VersionName, v.VersionCode, force, truncate(v.DownloadURL, 60)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}
