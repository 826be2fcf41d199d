package cli

import (
	"context"
	"fmt"

	"github.com/scriba-app/scriba/internal/client/auth"
	"github.com/scriba-app/scriba/internal/client/iocli"
	"github.com/scriba-app/scriba/internal/client/notes"
	"github.com/scriba-app/scriba/internal/client/realtime"
	"github.com/scriba-app/scriba/internal/client/sync"
)

// Cli dispatches commands over the client services. Reads and writes go
// through io so commands stay testable.
type Cli struct {
	io           iocli.IO
	authService  auth.Service
	notesService notes.Service
	syncService  sync.Service
	channel      realtime.Channel
}

func New(
	io iocli.IO,
	authService auth.Service,
	notesService notes.Service,
	syncService sync.Service,
	channel realtime.Channel,
) *Cli {
	return &Cli{
		io:           io,
		authService:  authService,
		notesService: notesService,
		syncService:  syncService,
		channel:      channel,
	}
}

// Run executes one command. args are the arguments after the command
// name.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "add":
		return c.runAdd(ctx, args)
	case "list":
		return c.runList(ctx)
	case "get":
		return c.runGet(ctx, args)
	case "edit":
		return c.runEdit(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "sync":
		return c.runSync(ctx)
	case "conflicts":
		return c.runConflicts(ctx)
	case "resolve":
		return c.runResolve(ctx, args)
	case "watch":
		return c.runWatch(ctx, args)
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (c *Cli) PrintUsage() {
	c.io.Println("Scriba Client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  scriba [OPTIONS] COMMAND")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  --version            Show version information")
	c.io.Println("  --server URL         Server URL (default: http://localhost:8080)")
	c.io.Println("  --db PATH            Path to local database (default: scriba.db)")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  register                   Register a new account")
	c.io.Println("  login                      Login and pull your notes")
	c.io.Println("  logout                     Logout and clear the local session")
	c.io.Println("  status                     Show session and sync state")
	c.io.Println("  add [--sync]               Add a note (works offline)")
	c.io.Println("  list                       List notes")
	c.io.Println("  get <id>                   Show one note")
	c.io.Println("  edit <id> [--sync]         Edit a note (works offline)")
	c.io.Println("  delete <id> [--sync]       Delete a note (works offline)")
	c.io.Println("  sync                       Push queued changes and pull updates")
	c.io.Println("  conflicts                  List notes awaiting conflict resolution")
	c.io.Println("  resolve <id> --keep-local|--accept-server")
	c.io.Println("                             Resolve a conflict")
	c.io.Println("  watch <id> [<id>...]       Follow notes live (realtime)")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  scriba register")
	c.io.Println("  scriba login")
	c.io.Println("  scriba add --sync")
	c.io.Println("  scriba edit 4f7c2a --sync")
	c.io.Println("  scriba resolve 4f7c2a --keep-local")
	c.io.Println("  scriba --server https://notes.example.com watch 4f7c2a")
}

// hasFlag reports whether args carries the given flag.
func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

// firstArg returns the first non-flag argument, or "".
func firstArg(args []string) string {
	for _, arg := range args {
		if len(arg) > 0 && arg[0] != '-' {
			return arg
		}
	}
	return ""
}
