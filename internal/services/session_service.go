package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"travel-agency/internal/clock"
	"travel-agency/internal/status"
	"travel-agency/models"
	"travel-agency/monitoring"
)

const revokedMarker = "revoked"

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	FindByHash(ctx context.Context, hash string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) (*models.Session, error)
	RevokeAll(ctx context.Context, userID string, at time.Time) ([]string, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

// Authenticator checks credentials and manages the token key of users.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, string, error)
	RotateTokenKey(ctx context.Context, userID string) error
}

// ClientInfo describes the device a session was opened from.
type ClientInfo struct {
	UserAgent string
	IP        string
}

type LoginResult struct {
	Token   string          `json:"-"`
	User    *models.User    `json:"user"`
	Session *models.Session `json:"session"`
}

// SessionService keeps a registry of issued auth tokens so that they can be
// listed and revoked. Verification results are cached in redis.
type SessionService struct {
	repo     SessionRepository
	auth     Authenticator
	redis    redis.Cmdable
	clock    clock.Clock
	ttl      time.Duration
	cacheTTL time.Duration
}

func NewSessionService(repo SessionRepository, auth Authenticator, redisClient redis.Cmdable, clk clock.Clock, ttl, cacheTTL time.Duration) *SessionService {
	return &SessionService{
		repo:     repo,
		auth:     auth,
		redis:    redisClient,
		clock:    clk,
		ttl:      ttl,
		cacheTTL: cacheTTL,
	}
}

// HashToken returns the registry key of an auth token. Raw tokens are never stored.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func cacheKey(hash string) string {
	return "session:" + hash
}

type cachedSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionService) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	user, token, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := s.Register(ctx, user.ID, token, client)
	if err != nil {
		return nil, err
	}
	session.Current = true

	monitoring.TrackSession("login")
	slog.Info("User logged in", "user", user.ID, "session", session.ID, "ip", client.IP)
	return &LoginResult{Token: token, User: user, Session: session}, nil
}

// Register records a token issued for userID.
func (s *SessionService) Register(ctx context.Context, userID, token string, client ClientInfo) (*models.Session, error) {
	session, err := s.repo.Create(ctx, &models.Session{
		UserID:    userID,
		TokenHash: HashToken(token),
		UserAgent: truncate(client.UserAgent, 512),
		IP:        client.IP,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	s.cache(ctx, session)
	return session, nil
}

// Verify resolves the session of a token. Unknown, revoked and expired
// sessions return status.ErrSessionRevoked.
func (s *SessionService) Verify(ctx context.Context, token string) (*models.Session, error) {
	hash := HashToken(token)
	now := s.clock.Now()

	raw, err := s.redis.Get(ctx, cacheKey(hash)).Result()
	switch {
	case err == nil:
		if raw == revokedMarker {
			return nil, status.ErrSessionRevoked
		}
		var c cachedSession
		if jsonErr := json.Unmarshal([]byte(raw), &c); jsonErr == nil {
			if !now.Before(c.ExpiresAt) {
				return nil, status.ErrSessionRevoked
			}
			return &models.Session{ID: c.ID, UserID: c.UserID, TokenHash: hash, ExpiresAt: c.ExpiresAt}, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.Warn("Session cache unavailable, using store", "error", err)
	}

	session, err := s.repo.FindByHash(ctx, hash)
	if errors.Is(err, status.ErrNotFound) {
		return nil, status.ErrSessionRevoked
	}
	if err != nil {
		return nil, err
	}
	if !session.Active(now) {
		s.markRevoked(ctx, hash)
		return nil, status.ErrSessionRevoked
	}

	if err := s.repo.Touch(ctx, session.ID, now); err != nil {
		slog.Warn("Failed to touch session", "session", session.ID, "error", err)
	}
	s.cache(ctx, session)
	return session, nil
}

// List returns the live sessions of userID, flagging the one matching currentID.
func (s *SessionService) List(ctx context.Context, actor models.Actor, userID, currentID string) ([]*models.Session, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListByUser(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		session.Current = session.ID == currentID
	}
	return sessions, nil
}

// Revoke ends one session. Users may revoke their own sessions, admins any.
func (s *SessionService) Revoke(ctx context.Context, actor models.Actor, id string) error {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, session.UserID); err != nil {
		return err
	}
	return s.revoke(ctx, session)
}

// Logout revokes the session of token.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	session, err := s.repo.FindByHash(ctx, HashToken(token))
	if errors.Is(err, status.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.revoke(ctx, session)
}

func (s *SessionService) revoke(ctx context.Context, session *models.Session) error {
	if _, err := s.repo.Revoke(ctx, session.ID, s.clock.Now()); err != nil {
		return err
	}
	s.markRevoked(ctx, session.TokenHash)
	monitoring.TrackSession("revoke")
	return nil
}

// RevokeAll ends every session of userID and rotates the user's token key so
// that tokens issued outside the registry stop working too.
func (s *SessionService) RevokeAll(ctx context.Context, actor models.Actor, userID string) (int, error) {
	if err := s.authorize(actor, userID); err != nil {
		return 0, err
	}

	n, err := s.expire(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.auth.RotateTokenKey(ctx, userID); err != nil {
		return n, fmt.Errorf("rotate token key: %w", err)
	}

	monitoring.TrackSession("revoke_all")
	slog.Info("Sessions revoked", "user", userID, "count", n, "by", actor.ID)
	return n, nil
}

// ExpireUser revokes the registry sessions of a user whose token key already
// changed, e.g. after a password reset.
func (s *SessionService) ExpireUser(ctx context.Context, userID string) error {
	n, err := s.expire(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("Sessions expired after token key change", "user", userID, "count", n)
	}
	return nil
}

func (s *SessionService) expire(ctx context.Context, userID string) (int, error) {
	hashes, err := s.repo.RevokeAll(ctx, userID, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if len(hashes) > 0 {
		pipe := s.redis.Pipeline()
		for _, hash := range hashes {
			pipe.Set(ctx, cacheKey(hash), revokedMarker, s.cacheTTL)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			slog.Warn("Failed to mark sessions revoked in cache", "user", userID, "error", err)
		}
	}
	return len(hashes), nil
}

func (s *SessionService) authorize(actor models.Actor, userID string) error {
	if actor.Anonymous() {
		return status.ErrUnauthorized
	}
	if actor.ID != userID && !actor.Can(models.PermManageSessions) {
		return status.ErrForbidden
	}
	return nil
}

func (s *SessionService) cache(ctx context.Context, session *models.Session) {
	ttl := s.cacheTTL
	if left := session.ExpiresAt.Sub(s.clock.Now()); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return
	}

	raw, _ := json.Marshal(cachedSession{ID: session.ID, UserID: session.UserID, ExpiresAt: session.ExpiresAt})
	if err := s.redis.Set(ctx, cacheKey(session.TokenHash), raw, ttl).Err(); err != nil {
		slog.Warn("Failed to cache session", "session", session.ID, "error", err)
	}
}

func (s *SessionService) markRevoked(ctx context.Context, hash string) {
	if err := s.redis.Set(ctx, cacheKey(hash), revokedMarker, s.cacheTTL).Err(); err != nil {
		slog.Warn("Failed to mark session revoked in cache", "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
