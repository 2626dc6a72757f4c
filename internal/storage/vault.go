// Package storage keeps the login session on disk so the CLI survives
// restarts the way a browser keeps a token in local storage.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"portafoglio/internal/core"
	"portafoglio/internal/log"
)

// ErrNoSession means no live session is stored.
var ErrNoSession = errors.New("no active session")

// Vault stores at most one session.
type Vault struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// OpenVault opens or creates the SQLite file at path and migrates it.
func OpenVault(path string, logger *log.Logger) (*Vault, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps the single-writer file consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Vault{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}, nil
}

// Close releases the database.
func (v *Vault) Close() error {
	if v.db != nil {
		return v.db.Close()
	}
	return nil
}

// Save replaces the stored session with s.
func (v *Vault) Save(ctx context.Context, s core.Session) error {
	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, token, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Token, s.ExpiresAt.Unix(), v.now().Unix(),
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	v.logger.InfoContext(ctx, "session saved", log.FieldResourceID, s.ID)
	return nil
}

// Current returns the stored session, or ErrNoSession when there is none
// or it has expired.
func (v *Vault) Current(ctx context.Context) (core.Session, error) {
	var (
		s       core.Session
		expires int64
	)
	err := v.db.QueryRowContext(ctx,
		`SELECT id, token, expires_at FROM sessions ORDER BY created_at DESC LIMIT 1`,
	).Scan(&s.ID, &s.Token, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, ErrNoSession
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("read session: %w", err)
	}
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	if s.Expired(v.now()) {
		return core.Session{}, ErrNoSession
	}
	return s, nil
}

// Token returns the bearer token of the current session.
func (v *Vault) Token(ctx context.Context) (string, error) {
	s, err := v.Current(ctx)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// Clear removes every stored session.
func (v *Vault) Clear(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	v.logger.InfoContext(ctx, "session cleared")
	return nil
}
