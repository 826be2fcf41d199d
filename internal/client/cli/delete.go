package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	id := firstArg(args)
	if id == "" {
		return fmt.Errorf("missing note ID. Usage: scriba delete <id>")
	}

	local, err := c.notesService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			return fmt.Errorf("note not found: %s", id)
		}
		return fmt.Errorf("failed to get note: %w", err)
	}

	c.io.Println("=== Delete Note ===")
	c.io.Println()
	c.io.Println("About to delete:")
	c.io.Printf("  Title: %s\n", local.Note.Title)
	c.io.Printf("  ID:    %s\n", local.Note.ID)
	c.io.Println()

	confirm, err := c.io.ReadInput("Are you sure? (yes/no): ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if confirm != "yes" && confirm != "y" {
		c.io.Println()
		c.io.Println("Deletion cancelled.")
		return nil
	}

	wasConflicted := local.SyncStatus == models.SyncStatusConflict

	if err := c.notesService.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Note deleted!")

	if wasConflicted {
		c.io.Println()
		c.io.Println("⚠ The note has an unresolved conflict, so it stays visible")
		c.io.Printf("  until you run 'scriba resolve %s'.\n", id)
		return nil
	}

	if hasFlag(args, "--sync") {
		c.io.Println()
		c.io.Println("Syncing...")
		if err := c.syncService.ReconcileNote(ctx, id); err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}
		c.io.Println("✓ Synced")
	} else {
		c.io.Println("Run 'scriba sync' to delete it on the server too.")
	}

	return nil
}
