package cli

import (
	"context"
	"fmt"

	"github.com/scriba-app/scriba/internal/client/storage"
)

func (c *Cli) runAdd(ctx context.Context, args []string) error {
	c.io.Println("=== Add Note ===")
	c.io.Println()

	title, err := c.io.ReadInput("Title: ")
	if err != nil {
		return fmt.Errorf("failed to read title: %w", err)
	}

	body, err := c.io.ReadInput("Body: ")
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	local, err := c.notesService.Create(ctx, title, body)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Note added!")
	c.io.Printf("ID: %s\n", local.Note.ID)

	if hasFlag(args, "--sync") {
		c.io.Println()
		c.io.Println("Syncing...")

		events, stop := c.notesService.Watch(ctx)
		syncErr := c.syncService.ReconcileNote(ctx, local.Note.ID)
		stop()
		if syncErr != nil {
			return fmt.Errorf("failed to sync: %w", syncErr)
		}

		// The server assigns the canonical ID on first flush; pick the
		// rename out of the change feed.
		syncedID := local.Note.ID
		for ev := range events {
			if ev.Kind == storage.NoteEventRenamed && ev.OldID == syncedID {
				syncedID = ev.NoteID
			}
		}
		c.io.Printf("✓ Synced as %s\n", syncedID)
	} else {
		c.io.Println("The note is stored locally. Run 'scriba sync' to push it.")
	}

	return nil
}
