package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

func (c *Cli) runEdit(ctx context.Context, args []string) error {
	id := firstArg(args)
	if id == "" {
		return fmt.Errorf("missing note ID. Usage: scriba edit <id>")
	}

	local, err := c.notesService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			return fmt.Errorf("note not found: %s", id)
		}
		return fmt.Errorf("failed to get note: %w", err)
	}

	c.io.Println("=== Edit Note ===")
	c.io.Println()
	c.io.Printf("Editing %q. Press enter to keep a field.\n", local.Note.Title)
	c.io.Println()

	title, err := c.io.ReadInput(fmt.Sprintf("Title [%s]: ", local.Note.Title))
	if err != nil {
		return fmt.Errorf("failed to read title: %w", err)
	}

	body, err := c.io.ReadInput("Body [keep current]: ")
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	var changes models.NoteChanges
	if title != "" {
		changes.Title = &title
	}
	if body != "" {
		changes.Body = &body
	}
	if changes.IsEmpty() {
		c.io.Println()
		c.io.Println("Nothing changed.")
		return nil
	}

	updated, err := c.notesService.Edit(ctx, id, changes)
	if err != nil {
		return fmt.Errorf("failed to edit note: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Note updated!")

	if updated.SyncStatus == models.SyncStatusConflict {
		c.io.Println()
		c.io.Println("⚠ The note still has an unresolved conflict; your edit is kept")
		c.io.Printf("  locally. Resolve it with 'scriba resolve %s'.\n", id)
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
		c.io.Println("The change is stored locally. Run 'scriba sync' to push it.")
	}

	return nil
}
