package cli

import (
	"context"
	"fmt"

	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/models"
)

func (c *Cli) runList(ctx context.Context) error {
	c.io.Println("=== Notes ===")
	c.io.Println()

	list, err := c.notesService.List(ctx, storage.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if len(list) == 0 {
		c.io.Println("No notes yet.")
		c.io.Println()
		c.io.Println("Use 'scriba add' to write your first note.")
		return nil
	}

	c.io.Printf("Found %d note(s):\n", len(list))
	c.io.Println()

	for _, n := range list {
		c.io.Printf("%s %s\n", statusMarker(n.SyncStatus), n.Note.Title)
		c.io.Printf("    ID:      %s\n", n.Note.ID)
		c.io.Printf("    Updated: %s\n", n.Note.UpdatedAt.Format("2006-01-02 15:04"))
		if preview := previewBody(n.Note.Body); preview != "" {
			c.io.Printf("    Preview: %s\n", preview)
		}
		c.io.Println()
	}

	c.io.Println("Markers: ✓ synced, ~ pending, ! conflict, x rejected")

	return nil
}

// statusMarker renders a one-character sync state for list output.
func statusMarker(status models.SyncStatus) string {
	switch status {
	case models.SyncStatusSynced:
		return "✓"
	case models.SyncStatusPending:
		return "~"
	case models.SyncStatusConflict:
		return "!"
	case models.SyncStatusError:
		return "x"
	default:
		return "?"
	}
}

// previewBody yields the first line of the body, truncated.
func previewBody(body string) string {
	const maxPreview = 60

	for i, r := range body {
		if r == '\n' {
			body = body[:i]
			break
		}
	}

	runes := []rune(body)
	if len(runes) > maxPreview {
		return string(runes[:maxPreview]) + "..."
	}
	return body
}
