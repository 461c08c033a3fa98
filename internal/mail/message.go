package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// SendRequest describes one outgoing message. The HTML body comes
// from the caller's stored template, not from the request.
type SendRequest struct {
	Subject      string
	FromName     string
	FromEmail    string
	ReplyToName  string
	ReplyToEmail string
	ToEmail      string
}

// BuildMessage renders the request and HTML body as a multipart MIME
// message with Subject, From, Reply-To and To headers, ready to be
// appended to a mailbox.
func BuildMessage(req SendRequest, htmlBody string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(req.Subject)
	h.SetAddressList("From", []*mail.Address{
		{Name: req.FromName, Address: req.FromEmail},
	})
	h.SetAddressList("Reply-To", []*mail.Address{
		{Name: req.ReplyToName, Address: req.ReplyToEmail},
	})
	h.SetAddressList("To", []*mail.Address{
		{Address: req.ToEmail},
	})
	h.Set("Message-Id", messageID(req.FromEmail))

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	var inline mail.InlineHeader
	inline.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	part, err := mw.CreateSingleInline(inline)
	if err != nil {
		return nil, fmt.Errorf("creating html part: %w", err)
	}
	if _, err := io.WriteString(part, htmlBody); err != nil {
		return nil, fmt.Errorf("writing html body: %w", err)
	}
	if err := part.Close(); err != nil {
		return nil, fmt.Errorf("closing html part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}

	return buf.Bytes(), nil
}

// messageID builds a unique Message-Id scoped to the sender's domain.
func messageID(fromEmail string) string {
	domain := fromEmail
	if at := strings.LastIndex(fromEmail, "@"); at >= 0 {
		domain = fromEmail[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
