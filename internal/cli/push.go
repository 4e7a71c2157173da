package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/client"
)

func newPushCmd() *cobra.Command {
	var (
		server   string
		token    string
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "push <payload.json>",
		Short: "Send a saved visit submission to a running server",
		Long: `Send a visit submission saved as JSON to a running server.
Useful for replaying payloads a device failed to deliver. Resending the
same visit replaces the stored copy.

Authenticate with --token (or SFA_TOKEN), or with --username and --password.

Examples:
  sfa push visit-V1.json --server http://localhost:3333 --username budi --password rahasia
  SFA_TOKEN=eyJ... sfa push visit-V1.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("SFA_TOKEN")
			}
			return runPush(cmd, args[0], server, token, username, password)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:3333", "server base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().StringVar(&username, "username", "", "login username")
	cmd.Flags().StringVar(&password, "password", "", "login password")

	return cmd
}

func runPush(cmd *cobra.Command, path, server, token, username, password string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%s is not valid JSON", path)
	}

	c := client.New(server, token)
	if token == "" {
		if username == "" || password == "" {
			return errors.New("--token or --username and --password are required")
		}
		if _, err := c.Login(cmd.Context(), username, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	resp, err := c.SubmitVisit(cmd.Context(), json.RawMessage(data))
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	return nil
}
