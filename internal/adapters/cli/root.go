package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL     string
	apiToken      string
	actorID       string
	characterID   string
	adminPassword string
)

// NewRootCommand creates gbctl's root command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gbctl",
		Short: "gbctl - administer a Gradient Bang server",
		Long: `gbctl sends admin-override requests to a running Gradient Bang server.

Examples:
  gbctl test-reset --actor-id 00000000-0000-0000-0000-000000000001
  gbctl character-delete --actor-id <admin-id> --target <character-id>
  gbctl healthz
  gbctl config`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getDefaultServerURL(),
		"Base URL of the Gradient Bang server")
	rootCmd.PersistentFlags().StringVar(&apiToken, "api-token", os.Getenv("EDGE_API_TOKEN"),
		"x-api-token sent with every request")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor-id", "",
		"Actor character id authorizing the admin override (required by admin commands)")
	rootCmd.PersistentFlags().StringVar(&characterID, "character-id", "00000000-0000-0000-0000-000000000000",
		"character_id carried on the envelope for admin-only calls")
	rootCmd.PersistentFlags().StringVar(&adminPassword, "admin-password", os.Getenv("EDGE_ADMIN_PASSWORD"),
		"admin password carried with admin_override requests")

	rootCmd.AddCommand(NewTestResetCommand())
	rootCmd.AddCommand(NewCharacterDeleteCommand())
	rootCmd.AddCommand(NewHealthzCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

func getDefaultServerURL() string {
	if url := os.Getenv("GBCTL_SERVER"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// adminEnvelope builds the §6.1 envelope fields common to every admin-only
// command: character_id, actor_character_id, and admin_override.
func adminEnvelope() (Envelope, error) {
	if actorID == "" {
		return nil, fmt.Errorf("--actor-id is required for admin commands")
	}
	env := Envelope{
		"character_id":       characterID,
		"actor_character_id": actorID,
		"admin_override":     true,
	}
	if adminPassword != "" {
		env["admin_password"] = adminPassword
	}
	return env, nil
}
