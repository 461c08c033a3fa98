package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nhle/mailerbot/internal/model"
)

// FileStore implements Users over a single JSON document on disk.
// Every operation reads the whole document and every mutation rewrites
// it, preserving the schema the deployed bots already use:
//
//	{"users": {"<id>": {"admin": bool, "emails": {...}, "template": ""}}}
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens the users database at path, creating an empty
// document (and parent directories) if none exists.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("opening users db %s: %w", path, err)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating users db directory %s: %w", dir, err)
			}
		}
		if err := s.save(model.NewUsersDocument()); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// load reads and decodes the whole document. Caller holds s.mu.
func (s *FileStore) load() (*model.UsersDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading users db %s: %w", s.path, err)
	}

	doc := model.NewUsersDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing users db %s: %w", s.path, err)
	}
	if doc.Users == nil {
		doc.Users = map[string]*model.User{}
	}
	for id, u := range doc.Users {
		u.ID = id
		if u.Emails == nil {
			u.Emails = map[string]string{}
		}
	}

	return doc, nil
}

// save rewrites the whole document via a temp file and rename, with
// the same 4-space indentation the previous tooling produced.
// Caller holds s.mu (or has exclusive access during construction).
func (s *FileStore) save(doc *model.UsersDocument) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding users db: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing users db %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing users db %s: %w", s.path, err)
	}

	return nil
}

// AddUser inserts a new user with empty credentials and template.
func (s *FileStore) AddUser(id string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Users[id]; ok {
		return fmt.Errorf("adding user %s: %w", id, ErrAlreadyExists)
	}

	doc.Users[id] = model.NewUser(id, admin)
	return s.save(doc)
}

// GetUser returns a copy of the stored user.
func (s *FileStore) GetUser(id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	u, ok := doc.Users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	// Copy so callers can't mutate the document behind the store.
	out := &model.User{
		ID:       u.ID,
		Admin:    u.Admin,
		Emails:   make(map[string]string, len(u.Emails)),
		Template: u.Template,
	}
	for k, v := range u.Emails {
		out.Emails[k] = v
	}

	return out, nil
}

// SetEmails replaces the user's credential map.
func (s *FileStore) SetEmails(id string, emails map[string]string) error {
	return s.mutate(id, func(u *model.User) {
		if emails == nil {
			emails = map[string]string{}
		}
		u.Emails = emails
	})
}

// SetTemplate replaces the user's mail template.
func (s *FileStore) SetTemplate(id string, template string) error {
	return s.mutate(id, func(u *model.User) {
		u.Template = template
	})
}

// mutate applies fn to an existing user and persists the document.
func (s *FileStore) mutate(id string, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	u, ok := doc.Users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	fn(u)
	return s.save(doc)
}

// RemoveUser deletes the user from the document.
func (s *FileStore) RemoveUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Users[id]; !ok {
		return fmt.Errorf("removing user %s: %w", id, ErrNotFound)
	}

	delete(doc.Users, id)
	return s.save(doc)
}

// IsRegistered reports whether the id is present in the document.
func (s *FileStore) IsRegistered(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := doc.Users[id]
	return ok, nil
}

// IsAdmin reports whether a registered id has the admin flag. An
// unknown id reports false without an error.
func (s *FileStore) IsAdmin(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	u, ok := doc.Users[id]
	if !ok {
		return false, nil
	}
	return u.Admin, nil
}

// ListUsers returns every user keyed by id.
func (s *FileStore) ListUsers() (map[string]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}
