package console

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kazukitoyoda1215-max/Supporton/internal/apperr"
)

const defaultSessionTTL = 12 * time.Hour

// AuthOptions configures shared-password login.
type AuthOptions struct {
	Enabled bool
	// Secret is the static master password.
	Secret string
	// SecretURL, when set, names a sheet whose top-left cell holds the
	// master password. It is fetched on every login attempt.
	SecretURL string
	TTL       time.Duration
}

// AuthEnabled reports whether requests need a session.
func (s *Service) AuthEnabled() bool {
	return s.auth.Enabled
}

func (s *Service) masterSecret(ctx context.Context) (string, error) {
	if s.auth.SecretURL == "" {
		return s.auth.Secret, nil
	}
	cell, err := s.source.FetchCell(ctx, s.auth.SecretURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(cell), nil
}

// Login checks password against the master secret and opens a session.
// It returns the session token and its expiry.
func (s *Service) Login(ctx context.Context, password string) (string, time.Time, error) {
	if !s.auth.Enabled {
		return "", time.Time{}, fmt.Errorf("console: login: authentication is disabled: %w", apperr.ErrInvalid)
	}
	master, err := s.masterSecret(ctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("console: login: master secret: %w", err)
	}
	if master == "" || subtle.ConstantTimeCompare([]byte(password), []byte(master)) != 1 {
		s.logger.Warn("login rejected")
		return "", time.Time{}, apperr.ErrUnauthorized
	}

	now := s.now()
	if n, err := s.store.PurgeSessions(now); err != nil {
		s.logger.Warn("session purge failed", slog.String("error", err.Error()))
	} else if n > 0 {
		s.logger.Debug("sessions purged", slog.Int64("count", n))
	}

	token := uuid.NewString()
	expires := now.Add(s.auth.TTL)
	if err := s.store.CreateSession(token, expires); err != nil {
		return "", time.Time{}, fmt.Errorf("console: login: %w", err)
	}
	s.logger.Info("login accepted", slog.Time("expires_at", expires))
	return token, expires, nil
}

// Logout ends a session. Unknown tokens are ignored.
func (s *Service) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(token)
}

// Authorize reports whether token grants access. Everything is allowed while
// authentication is disabled.
func (s *Service) Authorize(token string) bool {
	if !s.auth.Enabled {
		return true
	}
	if token == "" {
		return false
	}
	ok, err := s.store.SessionValid(token, s.now())
	if err != nil {
		s.logger.Error("session lookup failed", slog.String("error", err.Error()))
		return false
	}
	return ok
}
