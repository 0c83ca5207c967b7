package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradient-bang/server/internal/infrastructure/config"
)

// NewConfigCommand inspects the resolved server configuration, the way the
// teacher's `spacetraders config show` surfaces its own layered config.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved server configuration",
	}
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the layered config (env > file > defaults)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				fmt.Printf("Warning: failed to load config: %v\n", err)
				fmt.Println("Falling back to defaults.")
				cfg = config.LoadConfigOrDefault("")
			}

			fmt.Println("Gradient Bang Server Configuration")
			fmt.Println("===================================")

			fmt.Println("Database:")
			fmt.Printf("  Type:                %s\n", cfg.Database.Type)
			if cfg.Database.URL != "" {
				fmt.Printf("  URL:                 (set)\n")
			} else {
				fmt.Printf("  Host:                %s\n", cfg.Database.Host)
				fmt.Printf("  Port:                %d\n", cfg.Database.Port)
				fmt.Printf("  Name:                %s\n", cfg.Database.Name)
			}

			fmt.Println("\nEdge surface:")
			fmt.Printf("  Bind address:        %s\n", cfg.Server.Addr)
			fmt.Printf("  x-api-token:         %s\n", maskedOrBypass(cfg.API.Token))
			fmt.Printf("  Broadcast retries:   %d (delay %s)\n", cfg.API.BroadcastRetries, cfg.API.BroadcastRetryDelay())

			fmt.Println("\nCombat:")
			fmt.Printf("  Round timeout:       %ds\n", cfg.Combat.RoundTimeoutSeconds)
			fmt.Printf("  Tick batch size:     %d\n", cfg.Combat.TickBatchSize)

			fmt.Println("\nWorld store:")
			fmt.Printf("  Move delay:          %.2fs/turn (scale %.2f)\n", cfg.WorldStore.MoveDelaySeconds, cfg.WorldStore.MoveDelayScale)
			fmt.Printf("  Allow legacy ids:    %t\n", cfg.WorldStore.AllowLegacyIDs)
			fmt.Printf("  Fixture path:        %s\n", cfg.WorldStore.FixturePath)

			fmt.Println("\nRealtime:")
			if cfg.Realtime.WebhookURL != "" {
				fmt.Printf("  Webhook:             %s\n", cfg.Realtime.WebhookURL)
			} else {
				fmt.Printf("  Webhook:             (disabled)\n")
			}
			fmt.Printf("  Throttle:            %.0f req/s (burst %d)\n", cfg.Realtime.RatePerSecond, cfg.Realtime.Burst)

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:               %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:              %s\n", cfg.Logging.Format)

			return nil
		},
	}
}

func maskedOrBypass(token string) string {
	if token == "" {
		return "(unset — local-dev bypass)"
	}
	return "***** (set)"
}
