package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scriba-app/scriba/internal/client/realtime"
	"github.com/scriba-app/scriba/internal/client/storage"
	"github.com/scriba-app/scriba/internal/client/sync"
	"github.com/scriba-app/scriba/pkg/api"
)

func (c *Cli) runWatch(ctx context.Context, args []string) error {
	ids := nonFlagArgs(args)
	if len(ids) == 0 {
		return fmt.Errorf("missing note ID. Usage: scriba watch <id> [<id>...]")
	}

	for _, id := range ids {
		if _, err := c.notesService.Get(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNoteNotFound) {
				return fmt.Errorf("note not found: %s", id)
			}
			return fmt.Errorf("failed to get note %s: %w", id, err)
		}
	}

	c.io.Println("=== Watch ===")
	c.io.Println()

	// Subscribe before connecting so no early event is missed.
	events, stopEvents := c.channel.Subscribe(ctx)
	defer stopEvents()

	if err := c.channel.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		_ = c.channel.Close()
	}()

	for _, id := range ids {
		if err := c.channel.JoinRoom(id); err != nil {
			return fmt.Errorf("failed to join room %s: %w", id, err)
		}
		_ = c.channel.PublishPresence(id, api.PresenceActive)
	}

	// Keep the reconciler running so queued edits flush and background
	// polls still happen while watching.
	done := make(chan error, 1)
	go func() {
		done <- c.syncService.Start(ctx)
	}()

	c.io.Printf("Watching %s. Press Ctrl+C to stop.\n", strings.Join(ids, ", "))
	c.io.Println()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("background sync stopped: %w", err)
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handleWatchEvent(ctx, ev)
		}
	}
}

func (c *Cli) handleWatchEvent(ctx context.Context, ev realtime.Event) {
	switch ev.Kind {
	case realtime.EventRemoteUpdate:
		if ev.Changes == nil {
			return
		}
		update := sync.RemoteUpdate{
			NoteID:    ev.Room,
			Changes:   *ev.Changes,
			Version:   ev.Version,
			UpdatedAt: ev.At,
		}
		if err := c.syncService.ApplyRemoteUpdate(ctx, update); err != nil {
			c.io.Printf("! failed to apply update to %s: %v\n", ev.Room, err)
			return
		}
		if ev.Changes.Deleted != nil && *ev.Changes.Deleted {
			c.io.Printf("• %s deleted %s\n", ev.Username, ev.Room)
			return
		}
		c.io.Printf("• %s updated %s (v%d)\n", ev.Username, ev.Room, ev.Version)

	case realtime.EventUserJoined:
		c.io.Printf("• %s joined %s\n", ev.Username, ev.Room)

	case realtime.EventUserLeft:
		c.io.Printf("• %s left %s\n", ev.Username, ev.Room)

	case realtime.EventPresenceUpdate:
		c.io.Printf("• %s is %s in %s\n", ev.Username, ev.Status, ev.Room)

	case realtime.EventPresenceState:
		if len(ev.Members) == 0 {
			return
		}
		names := make([]string, 0, len(ev.Members))
		for _, m := range ev.Members {
			names = append(names, m.Username)
		}
		c.io.Printf("• currently in %s: %s\n", ev.Room, strings.Join(names, ", "))

	case realtime.EventReconnected:
		c.io.Println("• reconnected; refreshing watched notes")
		if err := c.syncService.FetchAndReconcile(ctx, ev.Rooms); err != nil {
			c.io.Printf("! refresh failed: %v\n", err)
		}

	case realtime.EventDisconnected:
		c.io.Println("• connection lost; reconnecting...")
	}
}

// nonFlagArgs returns the arguments that aren't flags.
func nonFlagArgs(args []string) []string {
	var out []string
	for _, arg := range args {
		if len(arg) > 0 && arg[0] != '-' {
			out = append(out, arg)
		}
	}
	return out
}
