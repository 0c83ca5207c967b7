package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewTestResetCommand wraps test_reset: truncates every mutable table and
// re-seeds the static universe from fixtures.
func NewTestResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-reset",
		Short: "Truncate and re-seed the world (admin-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := adminEnvelope()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client := NewClient(serverURL, apiToken)
			if _, err := client.Call(ctx, "test_reset", body); err != nil {
				return err
			}

			fmt.Println("World reset and re-seeded")
			return nil
		},
	}
}

// NewCharacterDeleteCommand wraps character_delete.
func NewCharacterDeleteCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "character-delete",
		Short: "Delete a character, their ships, and garrisons (admin-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return fmt.Errorf("--target is required")
			}
			body, err := adminEnvelope()
			if err != nil {
				return err
			}
			body["target_character_id"] = target

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			client := NewClient(serverURL, apiToken)
			if _, err := client.Call(ctx, "character_delete", body); err != nil {
				return err
			}

			fmt.Printf("Character %s deleted\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "character id to delete")
	return cmd
}

// NewHealthzCommand hits /healthz directly.
func NewHealthzCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "healthz",
		Short: "Check server liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			client := NewClient(serverURL, apiToken)
			body, status, err := client.Healthz(ctx)
			if err != nil {
				return fmt.Errorf("healthz check failed: %w", err)
			}

			if status == 200 {
				fmt.Println("✓ Server is healthy")
			} else {
				fmt.Printf("✗ Server reported unhealthy (status %d)\n", status)
			}
			for k, v := range body {
				fmt.Printf("  %s: %v\n", k, v)
			}
			return nil
		},
	}
}
