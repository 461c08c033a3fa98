package store

import (
	"context"
	"errors"

	"github.com/nhle/mailerbot/internal/model"
)

// ErrNotFound is returned when a referenced user id is absent.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned when adding a user id that is present.
var ErrAlreadyExists = errors.New("user already exists")

// Users is the persistence contract for the registrant database.
//
// Implementations load and rewrite the whole document per operation.
// Calls within one process are serialized; a second process writing
// the same file still races (last writer wins). That gap is accepted
// for the single-process usage this bot is built for.
type Users interface {
	// AddUser inserts a user with empty credentials and template.
	// Fails with ErrAlreadyExists if the id is present.
	AddUser(id string, admin bool) error

	// GetUser returns the user, or ErrNotFound if the id is absent.
	GetUser(id string) (*model.User, error)

	// SetEmails replaces the user's credential map. The caller
	// validates addresses before storing them.
	SetEmails(id string, emails map[string]string) error

	// SetTemplate replaces the user's mail template.
	SetTemplate(id string, template string) error

	// RemoveUser deletes the user, or fails with ErrNotFound.
	RemoveUser(id string) error

	// IsRegistered reports whether the id is in the database.
	IsRegistered(id string) (bool, error)

	// IsAdmin reports whether the id is a registered admin. An
	// unregistered id is not an error; it is simply not an admin.
	IsAdmin(id string) (bool, error)

	// ListUsers returns every user keyed by id.
	ListUsers() (map[string]*model.User, error)
}

// History is the persistence contract for the send audit log.
type History interface {
	RecordSend(ctx context.Context, rec model.SendRecord) error
	RecentSends(ctx context.Context, userID string, limit int) ([]model.SendRecord, error)
	Close() error
}
