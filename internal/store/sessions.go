package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"travel-agency/internal/schema"
	"travel-agency/models"
)

// SessionStore is the durable session registry.
type SessionStore struct {
	app core.App
}

func NewSessionStore(app core.App) *SessionStore {
	return &SessionStore{app: app}
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	collection, err := s.app.FindCachedCollectionByNameOrId(schema.Sessions)
	if err != nil {
		return nil, fmt.Errorf("find collection sessions: %w", err)
	}

	record := core.NewRecord(collection)
	EncodeSession(session, record)
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, saveError(schema.Sessions, err)
	}
	return DecodeSession(record), nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.findOne(ctx, dbx.HashExp{"id": id})
}

func (s *SessionStore) FindByHash(ctx context.Context, hash string) (*models.Session, error) {
	return s.findOne(ctx, dbx.HashExp{"token_hash": hash})
}

func (s *SessionStore) findOne(ctx context.Context, exp dbx.Expression) (*models.Session, error) {
	record, err := findRecord(ctx, s.app, schema.Sessions, exp)
	if err != nil {
		return nil, err
	}
	return DecodeSession(record), nil
}

// ListByUser returns the sessions of a user that are neither revoked nor expired, newest first.
func (s *SessionStore) ListByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(schema.Sessions).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"user": userID, "revoked_at": ""}).
		AndWhere(dbx.NewExp("expires_at > {:now}", dbx.Params{"now": now.UTC().Format(types.DefaultDateLayout)})).
		OrderBy("created DESC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("list sessions of %s: %w", userID, err)
	}

	sessions := make([]*models.Session, len(records))
	for i, r := range records {
		sessions[i] = DecodeSession(r)
	}
	return sessions, nil
}

// Revoke marks one session revoked. Revoking twice keeps the first timestamp.
func (s *SessionStore) Revoke(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	record, err := findRecord(ctx, s.app, schema.Sessions, dbx.HashExp{"id": id})
	if err != nil {
		return nil, err
	}
	if record.GetDateTime("revoked_at").IsZero() {
		record.Set("revoked_at", at)
		if err := s.app.SaveWithContext(ctx, record); err != nil {
			return nil, saveError(schema.Sessions, err)
		}
	}
	return DecodeSession(record), nil
}

// RevokeAll revokes every live session of a user and returns their token hashes.
func (s *SessionStore) RevokeAll(ctx context.Context, userID string, at time.Time) ([]string, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(schema.Sessions).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"user": userID, "revoked_at": ""}).
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("find sessions of %s: %w", userID, err)
	}

	hashes := make([]string, 0, len(records))
	err = s.app.RunInTransaction(func(txApp core.App) error {
		for _, r := range records {
			r.Set("revoked_at", at)
			if err := txApp.SaveWithContext(ctx, r); err != nil {
				return err
			}
			hashes = append(hashes, r.GetString("token_hash"))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("revoke sessions of %s: %w", userID, err)
	}
	return hashes, nil
}

// Touch records the last time a session was used.
func (s *SessionStore) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := s.app.DB().
		Update(schema.Sessions, dbx.Params{"last_seen_at": at.UTC().Format(types.DefaultDateLayout)}, dbx.HashExp{"id": id}).
		WithContext(ctx).
		Execute()
	return err
}

func EncodeSession(session *models.Session, r *core.Record) {
	r.Set("user", session.UserID)
	r.Set("token_hash", session.TokenHash)
	r.Set("user_agent", session.UserAgent)
	r.Set("ip", session.IP)
	r.Set("expires_at", session.ExpiresAt)
	r.Set("revoked_at", timeValue(session.RevokedAt))
	r.Set("last_seen_at", timeValue(session.LastSeenAt))
}

func DecodeSession(r *core.Record) *models.Session {
	return &models.Session{
		ID:         r.Id,
		UserID:     r.GetString("user"),
		TokenHash:  r.GetString("token_hash"),
		UserAgent:  r.GetString("user_agent"),
		IP:         r.GetString("ip"),
		ExpiresAt:  getTime(r, "expires_at"),
		RevokedAt:  getTimePtr(r, "revoked_at"),
		LastSeenAt: getTimePtr(r, "last_seen_at"),
		Audit: models.Audit{
			CreatedAt: getTime(r, "created"),
			UpdatedAt: getTime(r, "updated"),
		},
	}
}
