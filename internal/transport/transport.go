// Package transport defines the narrow contract to the chat service
// the bot runs on, and a Telegram Bot API implementation of it.
package transport

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned when a document handle cannot be
// resolved to file content.
var ErrDocumentNotFound = errors.New("document not found")

// Command is an inbound slash command.
type Command struct {
	// Name is the command without its leading slash.
	Name string

	// Args is the whitespace-split argument list.
	Args []string

	// Raw is the untouched text after the command token, for handlers
	// that apply their own quote-aware splitting.
	Raw string
}

// Document is a handle to a file a caller uploaded.
type Document struct {
	FileID string
	Name   string
}

// Update is one inbound event. Exactly one of Command and Document is
// set for events the bot acts on; a plain text message has neither.
type Update struct {
	CallerID string
	Command  *Command
	Document *Document
	Text     string
}

// Transport is the boundary to the chat service. The bot core only
// ever talks to the service through this interface.
type Transport interface {
	// Poll blocks until inbound events arrive (or the service's
	// long-poll window expires) and returns them in order.
	Poll(ctx context.Context) ([]Update, error)

	// Reply sends an HTML-formatted message to the caller.
	Reply(ctx context.Context, callerID, html string) error

	// FetchDocument downloads the content behind a document handle.
	FetchDocument(ctx context.Context, fileID string) ([]byte, error)
}
