package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	isAuth, err := c.authService.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !isAuth {
		c.io.Println("Not logged in.")
		c.io.Println()
		c.io.Println("Run 'scriba login' to authenticate.")
		return nil
	}

	session, err := c.authService.Session(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	c.io.Printf("Logged in as:  %s\n", session.Username)
	c.io.Printf("Token expires: %s\n", session.ExpiresAt.Format(time.RFC3339))

	list, err := c.notesService.List(ctx, storage.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	var pending, conflicts, rejected int
	for _, n := range list {
		switch n.SyncStatus {
		case models.SyncStatusPending:
			pending++
		case models.SyncStatusConflict:
			conflicts++
		case models.SyncStatusError:
			rejected++
		}
	}

	c.io.Println()
	c.io.Printf("Notes: %d\n", len(list))

	if pending == 0 && conflicts == 0 && rejected == 0 {
		c.io.Println("✓ Everything is synced")
		return nil
	}

	if pending > 0 {
		c.io.Printf("Pending sync: %d note(s). Run 'scriba sync' to push them.\n", pending)
	}
	if conflicts > 0 {
		c.io.Printf("⚠ Conflicts: %d note(s). Run 'scriba conflicts' to review.\n", conflicts)
	}
	if rejected > 0 {
		c.io.Printf("⚠ Rejected by server: %d note(s). Edit them to retry.\n", rejected)
	}

	return nil
}
