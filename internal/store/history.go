package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mailerbot/internal/model"
)

// migration is one versioned schema change for the history database.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS sends (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				from_email TEXT NOT NULL,
				to_email   TEXT NOT NULL,
				subject    TEXT NOT NULL,
				ok         INTEGER NOT NULL,
				detail     TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_sends_user_created
				ON sends(user_id, created_at);

			INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}

// SQLiteHistory implements History using a local SQLite database.
type SQLiteHistory struct {
	db *sqlx.DB
}

// NewSQLiteHistory opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteHistory{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteHistory) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordSend inserts one send-attempt record. A missing id or
// timestamp is filled in.
func (s *SQLiteHistory) RecordSend(ctx context.Context, rec model.SendRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO sends (
			id, user_id, from_email, to_email,
			subject, ok, detail, created_at
		) VALUES (
			:id, :user_id, :from_email, :to_email,
			:subject, :ok, :detail, :created_at
		)`

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("recording send for user %s: %w", rec.UserID, err)
	}

	return nil
}

// RecentSends returns the user's most recent send attempts, newest
// first.
func (s *SQLiteHistory) RecentSends(
	ctx context.Context, userID string, limit int,
) ([]model.SendRecord, error) {
	if limit < 1 {
		limit = 10
	}

	const query = `
		SELECT id, user_id, from_email, to_email,
		       subject, ok, detail, created_at
		FROM sends
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`

	var recs []model.SendRecord
	if err := s.db.SelectContext(ctx, &recs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("listing sends for user %s: %w", userID, err)
	}

	return recs, nil
}
