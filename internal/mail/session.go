package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// AuthError indicates that the provider rejected the login. The
// message carries the transport's own detail so the caller can see
// what went wrong; it never contains the secret.
type AuthError struct {
	Email   string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Session is a live authenticated connection to a provider, scoped to
// a single send operation.
type Session interface {
	// Append deposits a raw message into the named mailbox folder
	// with the given flags.
	Append(ctx context.Context, folder string, msg []byte, flags []imap.Flag) error

	// Close logs out and releases the connection.
	Close() error
}

// Dialer opens authenticated sessions. Tests substitute a fake; the
// binary uses IMAPDialer.
type Dialer interface {
	Dial(ctx context.Context, p Provider, email, secret string) (Session, error)
}

// IMAPDialer opens real IMAP sessions over implicit TLS.
type IMAPDialer struct{}

// Dial connects to the provider endpoint and authenticates. A
// rejected login surfaces as an AuthError; the caller is responsible
// for calling Close on the returned session.
func (IMAPDialer) Dial(
	_ context.Context, p Provider, email, secret string,
) (Session, error) {
	client, err := imapclient.DialTLS(p.Addr(), nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", p.Addr(), err)
	}

	if err := client.Login(email, secret).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Email: email,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v", email, err,
			),
		}
	}

	return &imapSession{client: client}, nil
}

// imapSession wraps an authenticated go-imap client.
type imapSession struct {
	client *imapclient.Client
}

// Append selects the folder and appends the message.
func (s *imapSession) Append(
	_ context.Context, folder string, msg []byte, flags []imap.Flag,
) error {
	if _, err := s.client.Select(folder, nil).Wait(); err != nil {
		return fmt.Errorf("selecting %s: %w", folder, err)
	}

	cmd := s.client.Append(folder, int64(len(msg)), &imap.AppendOptions{
		Flags: flags,
	})
	if _, err := cmd.Write(msg); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("writing message to %s: %w", folder, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append to %s: %w", folder, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", folder, err)
	}

	return nil
}

// Close logs out of the provider.
func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}
