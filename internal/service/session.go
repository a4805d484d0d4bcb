package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// SessionStore is the storage a SessionService needs
type SessionStore interface {
	repository.UserRepository
	repository.SessionRepository
}

// ResolvedSession is the user behind a request. Issued is set when a new
// session was created and its token must be handed back to the client.
type ResolvedSession struct {
	User    *domain.User
	Session *domain.Session
	Issued  bool
}

// SessionService represents session service
type SessionService struct {
	store        SessionStore
	demoUsername string
	ttl          time.Duration
	log          *zap.Logger
	now          func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(store SessionStore, demoUsername string, ttl time.Duration, log *zap.Logger) *SessionService {
	return &SessionService{
		store:        store,
		demoUsername: demoUsername,
		ttl:          ttl,
		log:          log,
		now:          time.Now,
	}
}

// Resolve returns the user of a live session. Missing, unknown or expired
// tokens get a fresh session for the demo user.
func (s *SessionService) Resolve(ctx context.Context, token string) (*ResolvedSession, error) {
	now := s.now()

	if token != "" {
		resolved, err := s.lookup(ctx, token, now)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			return resolved, nil
		}
	}

	user, err := s.demoUser(ctx)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info("Session issued", zap.String("user_id", user.ID))

	return &ResolvedSession{User: user, Session: session, Issued: true}, nil
}

// PruneExpired deletes every expired session. Clients without a cookie get a
// new session on each request, so expired rows have to be swept in bulk.
func (s *SessionService) PruneExpired(ctx context.Context) (int, error) {
	removed, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	if removed > 0 {
		s.log.Info("Expired sessions pruned", zap.Int("removed", removed))
	}
	return removed, nil
}

// RunPruner calls PruneExpired every interval until ctx is done
func (s *SessionService) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PruneExpired(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("Failed to prune sessions", zap.Error(err))
			}
		}
	}
}

// lookup returns nil without error when the token does not name a live session
func (s *SessionService) lookup(ctx context.Context, token string, now time.Time) (*ResolvedSession, error) {
	session, err := s.store.GetSession(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Expired(now) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			s.log.Warn("Failed to delete expired session", zap.Error(err))
		}
		return nil, nil
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session user: %w", err)
	}

	return &ResolvedSession{User: user, Session: session}, nil
}

// demoUser looks up the demo user, creating it on first use
func (s *SessionService) demoUser(ctx context.Context) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, s.demoUsername)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get demo user: %w", err)
	}

	user = &domain.User{ID: uuid.NewString(), Username: s.demoUsername}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// A concurrent request may have created it first
		existing, lookupErr := s.store.GetUserByUsername(ctx, s.demoUsername)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to create demo user: %w", err)
		}
		return existing, nil
	}

	s.log.Info("Demo user created", zap.String("user_id", user.ID))
	return user, nil
}
