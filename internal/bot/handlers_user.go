package bot

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/nhle/mailerbot/internal/mail"
	"github.com/nhle/mailerbot/internal/model"
)

func (b *Bot) handleStart(_ context.Context, _ request) string {
	return msgStart
}

func (b *Bot) handleHelp(_ context.Context, _ request) string {
	return helpMenu
}

// handleAuth verifies an (email, password) pair against its provider
// and caches it on the caller.
func (b *Bot) handleAuth(ctx context.Context, req request) string {
	if len(req.Args) != 2 {
		return msgInvalidArgs
	}
	email, secret := req.Args[0], req.Args[1]

	if !mail.ValidAddress(email) {
		return msgInvalidEmail
	}

	if err := b.gateway.Authenticate(ctx, email, secret); err != nil {
		return fmt.Sprintf("<b>%s</b>", html.EscapeString(err.Error()))
	}

	user, err := b.users.GetUser(req.CallerID)
	if err != nil {
		b.log.Error("loading user failed", "caller", req.CallerID, "error", err)
		return msgUnexpected
	}

	user.Emails[email] = secret
	if err := b.users.SetEmails(req.CallerID, user.Emails); err != nil {
		b.log.Error("storing credential failed", "caller", req.CallerID, "error", err)
		return msgUnexpected
	}

	return fmt.Sprintf("Successfully authenticated into <code>%s</code>", email)
}

// handleSendmail sends one templated message. Arguments, in order:
// subject, from-name, from-email, reply-to-name, reply-to-email,
// target-email. The from address must be an authenticated credential;
// its provider carries the message.
func (b *Bot) handleSendmail(ctx context.Context, req request) string {
	args, err := splitArgs(req.Raw)
	if err != nil || len(args) < 6 {
		return msgInvalidArgs
	}

	sendReq := mail.SendRequest{
		Subject:      args[0],
		FromName:     args[1],
		FromEmail:    args[2],
		ReplyToName:  args[3],
		ReplyToEmail: args[4],
		ToEmail:      args[5],
	}

	if !mail.ValidAddress(sendReq.FromEmail) ||
		!mail.ValidAddress(sendReq.ReplyToEmail) ||
		!mail.ValidAddress(sendReq.ToEmail) {
		return msgInvalidSendEmail
	}

	user, err := b.users.GetUser(req.CallerID)
	if err != nil {
		b.log.Error("loading user failed", "caller", req.CallerID, "error", err)
		return msgUnexpected
	}

	secret, ok := user.Emails[sendReq.FromEmail]
	if !ok {
		return msgEmailMissing
	}

	sendErr := b.gateway.Send(ctx, secret, sendReq, user.Template)

	rec := model.SendRecord{
		UserID:    req.CallerID,
		FromEmail: sendReq.FromEmail,
		ToEmail:   sendReq.ToEmail,
		Subject:   sendReq.Subject,
		OK:        sendErr == nil,
	}
	if sendErr != nil {
		rec.Detail = sendErr.Error()
	}
	if err := b.history.RecordSend(ctx, rec); err != nil {
		b.log.Error("recording send failed", "caller", req.CallerID, "error", err)
	}

	if sendErr != nil {
		return fmt.Sprintf("<b>%s</b>", html.EscapeString(sendErr.Error()))
	}

	return fmt.Sprintf(
		"Mail sent to <code>%s</code>, status: <code>true</code>",
		sendReq.ToEmail,
	)
}

// handleDelmail removes one cached credential.
func (b *Bot) handleDelmail(_ context.Context, req request) string {
	if len(req.Args) != 1 {
		return msgInvalidArgs
	}
	email := req.Args[0]

	if !mail.ValidAddress(email) {
		return msgInvalidEmail
	}

	user, err := b.users.GetUser(req.CallerID)
	if err != nil {
		b.log.Error("loading user failed", "caller", req.CallerID, "error", err)
		return msgUnexpected
	}

	if _, ok := user.Emails[email]; !ok {
		return msgEmailMissing
	}

	delete(user.Emails, email)
	if err := b.users.SetEmails(req.CallerID, user.Emails); err != nil {
		b.log.Error("removing credential failed", "caller", req.CallerID, "error", err)
		return msgUnexpected
	}

	return fmt.Sprintf(
		"<b>Successfully removed '%s' from the email cache!</b>", email,
	)
}

// handleEmails lists the caller's cached credentials.
func (b *Bot) handleEmails(_ context.Context, req request) string {
	user, err := b.users.GetUser(req.CallerID)
	if err != nil {
		b.log.Error("loading user failed", "caller", req.CallerID, "error", err)
		return msgUnexpected
	}

	if len(user.Emails) == 0 {
		return msgNoEmails
	}

	emails := make([]string, 0, len(user.Emails))
	for email := range user.Emails {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	var sb strings.Builder
	for _, email := range emails {
		fmt.Fprintf(&sb, emailLineFormat, email, user.Emails[email])
	}
	return sb.String()
}

// handleTemplate puts the caller into the awaiting-template state;
// the next document they upload becomes their mail template.
func (b *Bot) handleTemplate(_ context.Context, req request) string {
	b.uploads.Begin(req.CallerID)
	return msgUploadPrompt
}

// handleHistory lists the caller's recent send attempts.
func (b *Bot) handleHistory(ctx context.Context, req request) string {
	recs, err := b.history.RecentSends(ctx, req.CallerID, 10)
	if err != nil {
		b.log.Error("listing history failed", "caller", req.CallerID, "error", err)
		return msgUnexpected
	}

	if len(recs) == 0 {
		return msgNoHistory
	}

	var sb strings.Builder
	for _, rec := range recs {
		fmt.Fprintf(&sb,
			"<b>to: <code>%s</code> status: <code>%t</code> at: <code>%s</code></b>\n",
			rec.ToEmail, rec.OK, rec.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return sb.String()
}
