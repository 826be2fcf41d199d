package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// UsernamePattern is the allowed username format: latin letters, digits
// and underscores, 3-32 characters.
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen is the minimum username length.
	MinUsernameLen = 3
	// MaxUsernameLen is the maximum username length.
	MaxUsernameLen = 32
	// MinPasswordLen is the minimum password length.
	MinPasswordLen = 8
	// MaxNoteTitleLen is the maximum note title length in runes.
	MaxNoteTitleLen = 256
	// MaxNoteBodyLen is the maximum note body size in bytes.
	MaxNoteBodyLen = 1 << 20
)

// ValidateUsername checks that username matches the allowed format.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}

// ValidateNoteTitle checks note title constraints. An empty title is
// allowed ("Untitled" rendering is the UI's concern), an oversized one
// is not.
func ValidateNoteTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxNoteTitleLen {
		return fmt.Errorf("title must not exceed %d characters", MaxNoteTitleLen)
	}
	return nil
}

// ValidateNoteBody checks note body constraints.
func ValidateNoteBody(body string) error {
	if len(body) > MaxNoteBodyLen {
		return fmt.Errorf("body must not exceed %d bytes", MaxNoteBodyLen)
	}
	return nil
}
