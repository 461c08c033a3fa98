package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/mailerbot/internal/mail"
	"github.com/nhle/mailerbot/internal/store"
	"github.com/nhle/mailerbot/internal/transport"
	"github.com/nhle/mailerbot/tests/testutil"
)

// fakeTransport records replies and serves canned documents.
type fakeTransport struct {
	replies  []string
	docs     map[string][]byte
	fetchErr error
}

func (f *fakeTransport) Poll(context.Context) ([]transport.Update, error) {
	return nil, nil
}

func (f *fakeTransport) Reply(_ context.Context, _ string, html string) error {
	f.replies = append(f.replies, html)
	return nil
}

func (f *fakeTransport) FetchDocument(_ context.Context, fileID string) ([]byte, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	content, ok := f.docs[fileID]
	if !ok {
		return nil, transport.ErrDocumentNotFound
	}
	return content, nil
}

func (f *fakeTransport) last(t *testing.T) string {
	t.Helper()
	if len(f.replies) == 0 {
		t.Fatal("no reply sent")
	}
	return f.replies[len(f.replies)-1]
}

// fakeSession records the append it receives.
type fakeSession struct {
	folder string
	msg    []byte
	flags  []imap.Flag
}

func (s *fakeSession) Append(_ context.Context, folder string, msg []byte, flags []imap.Flag) error {
	s.folder = folder
	s.msg = msg
	s.flags = flags
	return nil
}

func (s *fakeSession) Close() error { return nil }

// fakeDialer validates credentials against a fixed secret.
type fakeDialer struct {
	secret  string
	session *fakeSession
	dials   int
}

func (d *fakeDialer) Dial(_ context.Context, _ mail.Provider, email, secret string) (mail.Session, error) {
	d.dials++
	if secret != d.secret {
		return nil, &mail.AuthError{
			Email:   email,
			Message: "authentication failed for " + email + ": LOGIN rejected",
		}
	}
	return d.session, nil
}

type testBot struct {
	bot    *Bot
	users  *store.FileStore
	tr     *fakeTransport
	dialer *fakeDialer
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	users := testutil.NewTestUsers(t)
	history := testutil.NewTestHistory(t)
	tr := &fakeTransport{docs: map[string][]byte{}}
	dialer := &fakeDialer{secret: "secret", session: &fakeSession{}}
	gateway := mail.NewGateway(dialer, nil)

	return &testBot{
		bot:    New(users, history, gateway, tr, nil),
		users:  users,
		tr:     tr,
		dialer: dialer,
	}
}

// command builds a Command the way the transport would from raw text.
func parseCommand(text string) transport.Command {
	name, raw, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	raw = strings.TrimSpace(raw)
	return transport.Command{Name: name, Args: strings.Fields(raw), Raw: raw}
}

func TestUnregisteredCallerIsForbidden(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	for _, cmd := range []string{
		"/help", "/start", "/auth a@gmail.com secret", "/emails",
		"/sendmail 'Hi' Bob a@gmail.com Bob a@gmail.com c@yahoo.com",
		"/delmail a@gmail.com", "/template", "/history",
	} {
		tb.bot.HandleCommand(ctx, "999", parseCommand(cmd))
		if got := tb.tr.last(t); got != msgForbidden {
			t.Errorf("%s: got %q, want forbidden", cmd, got)
		}
	}

	if tb.dialer.dials != 0 {
		t.Error("forbidden command reached the mail gateway")
	}
	if registered, _ := tb.users.IsRegistered("999"); registered {
		t.Error("forbidden command mutated the user store")
	}
	if tb.bot.uploads.Pending("999") {
		t.Error("forbidden /template changed upload state")
	}
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("42", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	for _, cmd := range []string{"/operator", "/adduser 7 0", "/listusers", "/deluser 7"} {
		tb.bot.HandleCommand(ctx, "42", parseCommand(cmd))
		if got := tb.tr.last(t); got != msgForbidden {
			t.Errorf("%s: got %q, want forbidden", cmd, got)
		}
	}
}

func TestAdminUserManagement(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("1", true); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	tb.bot.HandleCommand(ctx, "1", parseCommand("/adduser 42 0"))
	if got := tb.tr.last(t); !strings.Contains(got, "42") || !strings.Contains(got, "added") {
		t.Errorf("adduser reply: %q", got)
	}
	if registered, _ := tb.users.IsRegistered("42"); !registered {
		t.Fatal("adduser did not register the user")
	}
	if admin, _ := tb.users.IsAdmin("42"); admin {
		t.Error("non-admin add produced an admin")
	}

	tb.bot.HandleCommand(ctx, "1", parseCommand("/adduser 42 1"))
	if got := tb.tr.last(t); got != msgUserExists {
		t.Errorf("duplicate adduser: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "1", parseCommand("/adduser nope 0"))
	if got := tb.tr.last(t); got != msgInvalidID {
		t.Errorf("bad id: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "1", parseCommand("/adduser 7 maybe"))
	if got := tb.tr.last(t); got != msgInvalidAdmin {
		t.Errorf("bad admin flag: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "1", parseCommand("/listusers"))
	if got := tb.tr.last(t); !strings.Contains(got, "42") || !strings.Contains(got, "1") {
		t.Errorf("listusers reply: %q", got)
	}

	tb.bot.HandleCommand(ctx, "1", parseCommand("/deluser 42"))
	if registered, _ := tb.users.IsRegistered("42"); registered {
		t.Error("deluser left the user registered")
	}

	tb.bot.HandleCommand(ctx, "1", parseCommand("/deluser 42"))
	if got := tb.tr.last(t); got != msgUserMissing {
		t.Errorf("deluser absent: got %q", got)
	}
}

func TestUploadStateMachine(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("42", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	tb.tr.docs["doc-1"] = []byte("hello")

	// Document while idle: no-op other than the pointer to /template.
	tb.bot.HandleDocument(ctx, "42", transport.Document{FileID: "doc-1"})
	if got := tb.tr.last(t); got != msgRunTemplate {
		t.Errorf("idle document: got %q", got)
	}

	// Request upload, then send a non-document message: state holds.
	tb.bot.HandleCommand(ctx, "42", parseCommand("/template"))
	if got := tb.tr.last(t); got != msgUploadPrompt {
		t.Errorf("template reply: %q", got)
	}
	tb.bot.HandleText(ctx, "42")
	if got := tb.tr.last(t); got != msgNotDocument {
		t.Errorf("non-document reminder: got %q", got)
	}
	if !tb.bot.uploads.Pending("42") {
		t.Fatal("non-document message cleared pending state")
	}
	if u, _ := tb.users.GetUser("42"); u.Template != "" {
		t.Errorf("template changed early: %q", u.Template)
	}

	// The next document is consumed as the template.
	tb.bot.HandleDocument(ctx, "42", transport.Document{FileID: "doc-1"})
	if tb.bot.uploads.Pending("42") {
		t.Error("still pending after document")
	}
	u, err := tb.users.GetUser("42")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Template != "hello" {
		t.Errorf("template: got %q, want %q", u.Template, "hello")
	}

	// Idle text is ignored entirely.
	before := len(tb.tr.replies)
	tb.bot.HandleText(ctx, "42")
	if len(tb.tr.replies) != before {
		t.Error("idle text produced a reply")
	}
}

func TestUploadFetchFailureClearsState(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("42", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/template"))
	tb.bot.HandleDocument(ctx, "42", transport.Document{FileID: "missing"})

	if got := tb.tr.last(t); got != msgUploadFailed {
		t.Errorf("fetch failure: got %q", got)
	}
	if tb.bot.uploads.Pending("42") {
		t.Error("pending state survived failed upload")
	}
	if u, _ := tb.users.GetUser("42"); u.Template != "" {
		t.Errorf("failed upload set template: %q", u.Template)
	}
}

func TestAuthValidation(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("42", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/auth a@gmail.com"))
	if got := tb.tr.last(t); got != msgInvalidArgs {
		t.Errorf("missing password: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/auth not-an-email secret"))
	if got := tb.tr.last(t); got != msgInvalidEmail {
		t.Errorf("bad email: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/auth a@gmail.com wrong"))
	if got := tb.tr.last(t); !strings.Contains(got, "authentication failed") {
		t.Errorf("rejected login: got %q", got)
	}
	if u, _ := tb.users.GetUser("42"); len(u.Emails) != 0 {
		t.Error("rejected login cached a credential")
	}
}

func TestSendmailEndToEnd(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("1", true); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	// Admin whitelists user 42 as non-admin.
	tb.bot.HandleCommand(ctx, "1", parseCommand("/adduser 42 0"))

	// User 42 caches a credential.
	tb.bot.HandleCommand(ctx, "42", parseCommand("/auth a@gmail.com secret"))
	if got := tb.tr.last(t); !strings.Contains(got, "a@gmail.com") {
		t.Fatalf("auth reply: %q", got)
	}
	u, err := tb.users.GetUser("42")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Emails["a@gmail.com"] != "secret" {
		t.Fatalf("credential not stored: %v", u.Emails)
	}

	// Sending from an address that was never authenticated fails.
	tb.bot.HandleCommand(ctx, "42",
		parseCommand("/sendmail 'Hi' Bob b@gmail.com Bob b@gmail.com c@yahoo.com"))
	if got := tb.tr.last(t); got != msgEmailMissing {
		t.Errorf("unknown credential: got %q", got)
	}

	// The real thing.
	tb.bot.HandleCommand(ctx, "42",
		parseCommand("/sendmail 'Hi' Bob a@gmail.com Bob a@gmail.com c@yahoo.com"))
	got := tb.tr.last(t)
	if !strings.Contains(got, "c@yahoo.com") || !strings.Contains(got, "true") {
		t.Fatalf("send reply: %q", got)
	}
	if tb.dialer.session.folder != "INBOX" {
		t.Errorf("appended to %q", tb.dialer.session.folder)
	}
	if !strings.Contains(string(tb.dialer.session.msg), "Subject: Hi") {
		t.Error("appended message missing subject")
	}

	// The attempt shows up in /history.
	tb.bot.HandleCommand(ctx, "42", parseCommand("/history"))
	if got := tb.tr.last(t); !strings.Contains(got, "c@yahoo.com") {
		t.Errorf("history reply: %q", got)
	}
}

func TestSendmailValidation(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("42", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/sendmail 'Hi' Bob"))
	if got := tb.tr.last(t); got != msgInvalidArgs {
		t.Errorf("too few args: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/sendmail 'Hi Bob a@gmail.com Bob a@gmail.com c@yahoo.com"))
	if got := tb.tr.last(t); got != msgInvalidArgs {
		t.Errorf("unterminated quote: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "42",
		parseCommand("/sendmail 'Hi' Bob not-an-email Bob a@gmail.com c@yahoo.com"))
	if got := tb.tr.last(t); got != msgInvalidSendEmail {
		t.Errorf("bad from email: got %q", got)
	}

	if tb.dialer.dials != 0 {
		t.Error("invalid sendmail reached the gateway")
	}
}

func TestDelmailAndEmails(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("42", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/emails"))
	if got := tb.tr.last(t); got != msgNoEmails {
		t.Errorf("empty cache: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/auth a@gmail.com secret"))

	tb.bot.HandleCommand(ctx, "42", parseCommand("/emails"))
	if got := tb.tr.last(t); !strings.Contains(got, "a@gmail.com") {
		t.Errorf("emails reply: %q", got)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/delmail b@gmail.com"))
	if got := tb.tr.last(t); got != msgEmailMissing {
		t.Errorf("delmail absent: got %q", got)
	}

	tb.bot.HandleCommand(ctx, "42", parseCommand("/delmail a@gmail.com"))
	if got := tb.tr.last(t); !strings.Contains(got, "removed") {
		t.Errorf("delmail reply: %q", got)
	}
	if u, _ := tb.users.GetUser("42"); len(u.Emails) != 0 {
		t.Error("delmail left the credential cached")
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	tb.bot.HandleCommand(context.Background(), "42", parseCommand("/bogus"))
	if len(tb.tr.replies) != 0 {
		t.Errorf("unknown command replied: %v", tb.tr.replies)
	}
}

func TestHandlerErrorsStayInChat(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	ctx := context.Background()

	if err := tb.users.AddUser("42", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	tb.tr.fetchErr = errors.New("backend exploded")

	tb.bot.HandleCommand(ctx, "42", parseCommand("/template"))
	tb.bot.HandleDocument(ctx, "42", transport.Document{FileID: "doc"})

	if got := tb.tr.last(t); got != msgUploadFailed {
		t.Errorf("transport failure: got %q", got)
	}
}
