package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/scriba-app/scriba/internal/client/sync"
)

func (c *Cli) runResolve(ctx context.Context, args []string) error {
	id := firstArg(args)
	if id == "" {
		return fmt.Errorf("missing note ID. Usage: scriba resolve <id> --keep-local|--accept-server")
	}

	keepLocal := hasFlag(args, "--keep-local")
	acceptServer := hasFlag(args, "--accept-server")

	if keepLocal == acceptServer {
		return fmt.Errorf("pick exactly one of --keep-local or --accept-server")
	}

	c.io.Println("=== Resolve Conflict ===")
	c.io.Println()

	if acceptServer {
		if err := c.syncService.ResolveAcceptServer(ctx, id); err != nil {
			if errors.Is(err, sync.ErrNoConflict) {
				return fmt.Errorf("note %s has no conflict to resolve", id)
			}
			return fmt.Errorf("failed to resolve: %w", err)
		}
		c.io.Println("✓ Server version accepted. Your unconfirmed changes were dropped.")
		return nil
	}

	if err := c.syncService.ResolveKeepLocal(ctx, id); err != nil {
		if errors.Is(err, sync.ErrNoConflict) {
			return fmt.Errorf("note %s has no conflict to resolve", id)
		}
		return fmt.Errorf("failed to resolve: %w", err)
	}

	c.io.Println("✓ Keeping your version. Pushing it to the server...")

	if err := c.syncService.ReconcileNote(ctx, id); err != nil {
		c.io.Printf("Warning: push failed: %v\n", err)
		c.io.Println("Your version is queued; run 'scriba sync' to retry.")
		return nil
	}

	c.io.Println("✓ Resolved and synced.")

	return nil
}
