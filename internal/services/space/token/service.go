package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kopcaptz/daybookai/internal/platform/errors"
	"github.com/kopcaptz/daybookai/internal/platform/id"
	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

// Principal is the result of a successful token verification: the member
// the token belongs to, the room that member lives in, and the stored
// session backing the token.
type Principal struct {
	Member    storage.MemberRecord
	Room      storage.RoomRecord
	SessionID string
}

// Service issues, verifies, and revokes session tokens.
type Service struct {
	codec    *Codec
	sessions storage.SessionStore
	rooms    storage.RoomStore
	ttl      time.Duration

	now   func() time.Time
	newID func() (string, error)
}

// NewService wires a token service over the given stores. ttl bounds the
// lifetime of issued tokens; sessions may still be revoked earlier.
func NewService(codec *Codec, sessions storage.SessionStore, rooms storage.RoomStore, ttl time.Duration) *Service {
	return &Service{
		codec:    codec,
		sessions: sessions,
		rooms:    rooms,
		ttl:      ttl,
		now:      time.Now,
		newID:    id.NewID,
	}
}

// Issue creates a session row for the member and returns a signed token
// pointing at it.
func (s *Service) Issue(ctx context.Context, memberID, roomID, channelKey string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("issue token: %w", apperrors.New(apperrors.CodeUnknown, "token service not configured"))
	}
	sessionID, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	now := s.now()
	record := storage.SessionRecord{
		ID:         sessionID,
		MemberID:   memberID,
		RoomID:     roomID,
		ChannelKey: channelKey,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.sessions.PutSession(ctx, record); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	encoded, err := s.codec.Encode(Payload{
		SessionID: record.ID,
		ExpiresAt: record.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return encoded, nil
}

// Verify resolves a token to its principal. Every failure mode collapses
// into a single unauthorized error so callers leak nothing about why a
// given token was rejected.
func (s *Service) Verify(ctx context.Context, encoded string) (Principal, error) {
	if s == nil || encoded == "" {
		return Principal{}, unauthorized()
	}
	payload, err := s.codec.Decode(encoded, s.now())
	if err != nil {
		return Principal{}, unauthorized()
	}
	session, err := s.sessions.GetSession(ctx, payload.SessionID)
	if err != nil {
		return Principal{}, unauthorized()
	}
	if !s.now().Before(session.ExpiresAt) {
		return Principal{}, unauthorized()
	}
	member, err := s.rooms.GetMember(ctx, session.MemberID)
	if err != nil {
		return Principal{}, unauthorized()
	}
	room, err := s.rooms.GetRoom(ctx, session.RoomID)
	if err != nil {
		return Principal{}, unauthorized()
	}
	return Principal{Member: member, Room: room, SessionID: session.ID}, nil
}

// Revoke deletes a single session. Tokens pointing at it stop verifying
// immediately. Revoking an unknown session is not an error.
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	if s == nil {
		return nil
	}
	err := s.sessions.DeleteSession(ctx, sessionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeMember deletes every session belonging to a member, cutting off
// all of their devices at once.
func (s *Service) RevokeMember(ctx context.Context, memberID string) error {
	if s == nil {
		return nil
	}
	if err := s.sessions.DeleteMemberSessions(ctx, memberID); err != nil {
		return fmt.Errorf("revoke member sessions: %w", err)
	}
	return nil
}

func unauthorized() error {
	return apperrors.New(apperrors.CodeUnauthorized, "invalid or revoked token")
}
