package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()
	c.io.Println("Pushing queued changes...")

	result, err := c.syncService.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Println("Pulling updates...")

	pulled, err := c.syncService.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to pull updates: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Synchronization completed!")
	c.io.Println()
	c.io.Printf("Pushed to server:   %d change(s)\n", result.Flushed)
	c.io.Printf("Pulled from server: %d note(s)\n", pulled)
	if result.Conflicts > 0 {
		c.io.Printf("⚠ Conflicts:        %d (run 'scriba conflicts' to review)\n", result.Conflicts)
	}
	if result.Discarded > 0 {
		c.io.Printf("⚠ Rejected:         %d change(s) refused by the server\n", result.Discarded)
	}

	return nil
}
