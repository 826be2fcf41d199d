package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runConflicts(ctx context.Context) error {
	c.io.Println("=== Conflicts ===")
	c.io.Println()

	list, err := c.notesService.Conflicts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list conflicts: %w", err)
	}

	if len(list) == 0 {
		c.io.Println("✓ No conflicts.")
		return nil
	}

	c.io.Printf("%d note(s) need resolution:\n", len(list))
	c.io.Println()

	for _, n := range list {
		c.io.Printf("! %s\n", n.Note.Title)
		c.io.Printf("    ID: %s\n", n.Note.ID)
		if n.Conflict != nil {
			if n.Conflict.ServerDeleted {
				c.io.Println("    Deleted on the server while you edited it.")
			} else {
				c.io.Printf("    Server is at version %d; your edit was based on version %d.\n",
					n.Conflict.ServerNote.Version, n.Conflict.BaseVersion)
			}
			c.io.Printf("    Detected: %s\n", n.Conflict.DetectedAt.Format("2006-01-02 15:04"))
		}
		c.io.Println()
	}

	c.io.Println("Resolve each with 'scriba resolve <id> --keep-local' or '--accept-server'.")

	return nil
}
