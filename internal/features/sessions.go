package features

import (
	"context"
	"fmt"

	"portafoglio/internal/core"
	"portafoglio/internal/forms"
	"portafoglio/internal/log"
	"portafoglio/internal/resources"
)

const SessionsResource = "sessions"

// Vault persists the current session between runs.
type Vault interface {
	Save(ctx context.Context, s core.Session) error
	Current(ctx context.Context) (core.Session, error)
	Clear(ctx context.Context) error
}

// Sessions logs in with a PIN and keeps the resulting token in a Vault.
type Sessions struct {
	*Module[core.Session]
	vault  Vault
	logger *log.Logger
}

func NewSessions(ops resources.Operations[core.Session], vault Vault, o Options) *Sessions {
	m := newModule(SessionsResource, ops, o,
		Binding[core.Session]{
			Values:  func(core.Session) forms.Values { return forms.Values{"pin": ""} },
			Payload: func(v forms.Values) resources.Payload { return partial(v, nil) },
		},
		func(*Module[core.Session]) forms.Schema {
			return forms.Schema{"pin": {"notPIN": forms.NotPIN}}
		},
		map[string]map[string]string{"pin": {"notPIN": "PIN must be 4 to 6 digits"}},
	)
	return &Sessions{Module: m, vault: vault, logger: m.logger.WithComponent(log.ComponentApp)}
}

// Login submits the login form and stores the new session.
func (s *Sessions) Login(ctx context.Context, f *forms.Form) (core.Session, error) {
	session, err := s.Submit(ctx, f, "")
	if err != nil {
		return core.Session{}, err
	}
	if err := s.vault.Save(ctx, session); err != nil {
		return core.Session{}, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "logged in", log.FieldOperation, log.OpLogin, log.FieldResourceID, session.ID)
	return session, nil
}

// Logout ends the server session, then forgets it locally. The local copy
// is dropped even when the API refuses.
func (s *Sessions) Logout(ctx context.Context) error {
	current, err := s.vault.Current(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	remoteErr := s.Remove(ctx, current.ID)
	if err := s.vault.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.InfoContext(ctx, "logged out", log.FieldOperation, log.OpLogout, log.FieldResourceID, current.ID)
	return remoteErr
}
