package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emersion/go-imap/v2"
)

// outboundFolder is where sent messages are deposited. The deployed
// accounts send by appending a flagged message to their own INBOX
// over the already-authenticated IMAP channel instead of opening a
// separate SMTP path; changing this breaks them.
const outboundFolder = "INBOX"

// Gateway resolves providers, opens per-send sessions, and deposits
// outgoing messages. Sessions are never cached across sends.
type Gateway struct {
	dialer Dialer
	log    *slog.Logger
}

// NewGateway creates a Gateway using the given dialer.
func NewGateway(dialer Dialer, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{dialer: dialer, log: log}
}

// Authenticate verifies that the secret opens a session for the
// address, then closes it. Used when a caller caches a credential.
func (g *Gateway) Authenticate(ctx context.Context, email, secret string) error {
	p, err := ResolveProvider(email)
	if err != nil {
		return err
	}

	session, err := g.dialer.Dial(ctx, p, email, secret)
	if err != nil {
		return err
	}
	defer session.Close()

	g.log.Debug("credential verified", "email", email, "provider", p.Domain)
	return nil
}

// Send opens a session as the from address, builds the message with
// the caller's template as body, and appends it flagged to the
// outbound folder. The session lives for this call only.
func (g *Gateway) Send(
	ctx context.Context, secret string, req SendRequest, htmlBody string,
) error {
	p, err := ResolveProvider(req.FromEmail)
	if err != nil {
		return err
	}

	msg, err := BuildMessage(req, htmlBody)
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	session, err := g.dialer.Dial(ctx, p, req.FromEmail, secret)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Append(ctx, outboundFolder, msg, []imap.Flag{imap.FlagFlagged}); err != nil {
		return err
	}

	g.log.Info("mail deposited",
		"provider", p.Domain,
		"from", req.FromEmail,
		"to", req.ToEmail,
	)
	return nil
}
