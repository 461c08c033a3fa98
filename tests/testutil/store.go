// Package testutil provides store helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/nhle/mailerbot/internal/store"
)

// NewTestUsers creates a FileStore backed by a fresh temp-dir users
// document. The directory is cleaned up with the test.
func NewTestUsers(t *testing.T) *store.FileStore {
	t.Helper()

	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("creating test users store: %v", err)
	}

	return s
}

// NewTestHistory creates an in-memory SQLiteHistory with all
// migrations applied. It is closed automatically when the test
// completes.
func NewTestHistory(t *testing.T) *store.SQLiteHistory {
	t.Helper()

	s, err := store.NewSQLiteHistory(":memory:")
	if err != nil {
		t.Fatalf("creating test history store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test history store: %v", err)
		}
	})

	return s
}
