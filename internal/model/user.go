package model

// User is one registrant in the users database. The JSON tags match
// the on-disk document used by existing deployments and must not
// change.
type User struct {
	// ID is the caller identifier assigned by the chat service. It is
	// the map key in the document, not a serialized field.
	ID string `json:"-"`

	// Admin grants access to the operator command tier.
	Admin bool `json:"admin"`

	// Emails maps an authenticated address to its secret.
	Emails map[string]string `json:"emails"`

	// Template is the raw HTML body used for all mail the user sends.
	Template string `json:"template"`
}

// NewUser returns a User with empty credentials and template.
func NewUser(id string, admin bool) *User {
	return &User{
		ID:     id,
		Admin:  admin,
		Emails: map[string]string{},
	}
}

// UsersDocument is the full on-disk users database:
//
//	{"users": {"<id>": {"admin": bool, "emails": {...}, "template": ""}}}
type UsersDocument struct {
	Users map[string]*User `json:"users"`
}

// NewUsersDocument returns an empty document ready for persisting.
func NewUsersDocument() *UsersDocument {
	return &UsersDocument{Users: map[string]*User{}}
}
