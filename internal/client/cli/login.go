package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	auth, err := c.authService.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Printf("✓ Logged in as %s\n", auth.Username)

	// Pull the account's notes so the local copy starts complete.
	c.io.Println("Pulling your notes...")
	pulled, err := c.syncService.Bootstrap(ctx)
	if err != nil {
		c.io.Printf("Warning: initial pull failed: %v\n", err)
		c.io.Println("Your notes will sync on the next 'scriba sync'.")
		return nil
	}

	c.io.Printf("✓ %d note(s) pulled from the server\n", pulled)

	return nil
}
