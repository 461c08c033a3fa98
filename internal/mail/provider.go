// Package mail resolves sender addresses to IMAP providers and sends
// templated messages through them.
package mail

import (
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
)

// ErrUnsupportedProvider is returned when an address does not belong
// to one of the supported mail services.
var ErrUnsupportedProvider = errors.New("unsupported mail provider")

// Provider is a supported mail service, identified by the sender's
// address domain.
type Provider struct {
	Domain string
	Host   string
	Port   string
}

// Addr returns the dialable host:port endpoint of the provider.
func (p Provider) Addr() string {
	return p.Host + ":" + p.Port
}

// endpoints maps supported sender domains to their IMAP hosts. Gmail
// and Yahoo/AOL behave identically today, so a lookup table replaces
// per-provider types; a divergent provider would grow a behavior hook
// here.
var endpoints = map[string]string{
	"gmail.com": "imap.gmail.com",
	"aol.com":   "imap.aol.com",
	"yahoo.com": "imap.mail.yahoo.com",
}

const imapsPort = "993"

// ValidAddress reports whether s is a bare, syntactically valid email
// address (no display name, exactly one address).
func ValidAddress(s string) bool {
	addr, err := netmail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// ResolveProvider maps a sender address to its provider. It fails
// with ErrUnsupportedProvider when the address is malformed or its
// domain is not in the supported set.
func ResolveProvider(email string) (Provider, error) {
	if !ValidAddress(email) {
		return Provider{}, fmt.Errorf("invalid address %q: %w", email, ErrUnsupportedProvider)
	}

	at := strings.LastIndex(email, "@")
	domain := strings.ToLower(email[at+1:])

	host, ok := endpoints[domain]
	if !ok {
		return Provider{}, fmt.Errorf("domain %q: %w", domain, ErrUnsupportedProvider)
	}

	return Provider{Domain: domain, Host: host, Port: imapsPort}, nil
}
