// Package bot routes inbound chat commands to handlers behind an
// access-control gate and tracks per-caller upload state.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhle/mailerbot/internal/mail"
	"github.com/nhle/mailerbot/internal/store"
	"github.com/nhle/mailerbot/internal/transport"
)

// request carries one inbound command into a handler.
type request struct {
	CallerID string
	Args     []string
	Raw      string
}

// handlerFunc processes a command and returns the HTML reply.
type handlerFunc func(ctx context.Context, req request) string

// command is one entry in the static dispatch table.
type command struct {
	admin   bool
	handler handlerFunc
}

// Bot wires the user store, the mail gateway, and the chat transport
// behind a static command table.
type Bot struct {
	users    store.Users
	history  store.History
	gateway  *mail.Gateway
	tr       transport.Transport
	uploads  *Uploads
	log      *slog.Logger
	commands map[string]command
}

// New builds a Bot and registers its command table once.
func New(
	users store.Users,
	history store.History,
	gateway *mail.Gateway,
	tr transport.Transport,
	log *slog.Logger,
) *Bot {
	if log == nil {
		log = slog.Default()
	}

	b := &Bot{
		users:   users,
		history: history,
		gateway: gateway,
		tr:      tr,
		uploads: NewUploads(),
		log:     log,
	}

	b.commands = map[string]command{
		"help":     {handler: b.handleHelp},
		"start":    {handler: b.handleStart},
		"auth":     {handler: b.handleAuth},
		"sendmail": {handler: b.handleSendmail},
		"delmail":  {handler: b.handleDelmail},
		"emails":   {handler: b.handleEmails},
		"template": {handler: b.handleTemplate},
		"history":  {handler: b.handleHistory},

		"operator":  {admin: true, handler: b.handleOperator},
		"adduser":   {admin: true, handler: b.handleAdduser},
		"listusers": {admin: true, handler: b.handleListusers},
		"deluser":   {admin: true, handler: b.handleDeluser},
	}

	return b
}

// Run polls the transport and dispatches events until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	for {
		updates, err := b.tr.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.Error("poll failed", "error", err)
			// Back off so a dead chat service doesn't spin the loop.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, up := range updates {
			b.Handle(ctx, up)
		}
	}
}

// Handle routes one inbound event.
func (b *Bot) Handle(ctx context.Context, up transport.Update) {
	switch {
	case up.Command != nil:
		b.HandleCommand(ctx, up.CallerID, *up.Command)
	case up.Document != nil:
		b.HandleDocument(ctx, up.CallerID, *up.Document)
	default:
		b.HandleText(ctx, up.CallerID)
	}
}

// HandleCommand gates the command on the caller's tier and runs its
// handler. Unknown commands are ignored. Unexpected faults are logged
// and converted to a generic failure reply; nothing crashes the loop.
func (b *Bot) HandleCommand(ctx context.Context, callerID string, cmd transport.Command) {
	entry, ok := b.commands[cmd.Name]
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("handler panicked",
				"command", cmd.Name, "caller", callerID, "panic", r)
			b.reply(ctx, callerID, msgUnexpected)
		}
	}()

	allowed := b.canUseUserCommands(callerID)
	if entry.admin {
		allowed = b.canUseAdminCommands(callerID)
	}
	if !allowed {
		b.log.Info("command forbidden", "command", cmd.Name, "caller", callerID)
		b.reply(ctx, callerID, msgForbidden)
		return
	}

	reply := entry.handler(ctx, request{
		CallerID: callerID,
		Args:     cmd.Args,
		Raw:      cmd.Raw,
	})
	if reply != "" {
		b.reply(ctx, callerID, reply)
	}
}

// HandleDocument consumes a document upload. If the caller is awaiting
// a template, its content becomes their template; the pending state
// clears whether the fetch succeeds or not.
func (b *Bot) HandleDocument(ctx context.Context, callerID string, doc transport.Document) {
	if !b.uploads.Consume(callerID) {
		b.reply(ctx, callerID, msgRunTemplate)
		return
	}

	content, err := b.tr.FetchDocument(ctx, doc.FileID)
	if err != nil {
		b.log.Error("document fetch failed",
			"caller", callerID, "file", doc.Name, "error", err)
		b.reply(ctx, callerID, msgUploadFailed)
		return
	}

	if err := b.users.SetTemplate(callerID, string(content)); err != nil {
		b.log.Error("storing template failed", "caller", callerID, "error", err)
		b.reply(ctx, callerID, msgUploadFailed)
		return
	}

	b.log.Info("template stored", "caller", callerID, "bytes", len(content))
}

// HandleText reminds a caller who is mid-upload that a document is
// required. Any other plain text is ignored.
func (b *Bot) HandleText(ctx context.Context, callerID string) {
	if b.uploads.Pending(callerID) {
		b.reply(ctx, callerID, msgNotDocument)
	}
}

// reply sends a chat reply, logging delivery failures.
func (b *Bot) reply(ctx context.Context, callerID, html string) {
	if err := b.tr.Reply(ctx, callerID, html); err != nil {
		b.log.Error("reply failed", "caller", callerID, "error", err)
	}
}
