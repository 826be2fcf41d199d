package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

func (c *Cli) runGet(ctx context.Context, args []string) error {
	id := firstArg(args)
	if id == "" {
		return fmt.Errorf("missing note ID. Usage: scriba get <id>")
	}

	local, err := c.notesService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			return fmt.Errorf("note not found: %s", id)
		}
		return fmt.Errorf("failed to get note: %w", err)
	}

	c.io.Println("=== Note ===")
	c.io.Println()
	c.io.Printf("Title:   %s\n", local.Note.Title)
	c.io.Printf("ID:      %s\n", local.Note.ID)
	c.io.Printf("Version: %d\n", local.Note.Version)
	c.io.Printf("Updated: %s\n", local.Note.UpdatedAt.Format(time.RFC3339))
	c.io.Printf("Status:  %s\n", local.SyncStatus)
	if local.SyncError != "" {
		c.io.Printf("Error:   %s\n", local.SyncError)
	}
	c.io.Println()
	c.io.Println(local.Note.Body)

	if local.SyncStatus == models.SyncStatusConflict && local.Conflict != nil {
		c.io.Println()
		c.printConflict(local)
	}

	return nil
}

// printConflict renders both sides of a version conflict.
func (c *Cli) printConflict(local *models.LocalNote) {
	info := local.Conflict

	c.io.Println("⚠ This note has a sync conflict.")
	if info.ServerDeleted {
		c.io.Println("The note was deleted on the server while you edited it.")
	} else {
		c.io.Printf("Server version %d (yours was based on version %d):\n",
			info.ServerNote.Version, info.BaseVersion)
		c.io.Printf("  Title: %s\n", info.ServerNote.Title)
		c.io.Printf("  Body:  %s\n", previewBody(info.ServerNote.Body))
	}

	c.io.Println("Your unconfirmed changes:")
	if info.LocalChanges.Title != nil {
		c.io.Printf("  Title: %s\n", *info.LocalChanges.Title)
	}
	if info.LocalChanges.Body != nil {
		c.io.Printf("  Body:  %s\n", previewBody(*info.LocalChanges.Body))
	}
	if info.LocalChanges.Deleted != nil && *info.LocalChanges.Deleted {
		c.io.Println("  (you deleted the note)")
	}

	c.io.Println()
	c.io.Printf("Resolve with 'scriba resolve %s --keep-local' or '--accept-server'.\n", local.Note.ID)
}
