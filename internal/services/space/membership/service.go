// Package membership manages PIN-based room joins, the member roster,
// and owner-only evictions.
package membership

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "github.com/kopcaptz/daybookai/internal/platform/errors"
	"github.com/kopcaptz/daybookai/internal/platform/id"
	"github.com/kopcaptz/daybookai/internal/services/space/domain/room"
	"github.com/kopcaptz/daybookai/internal/services/space/notify"
	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

// Tokens is the slice of the token service membership depends on.
type Tokens interface {
	Issue(ctx context.Context, memberID, roomID, channelKey string) (string, error)
	RevokeMember(ctx context.Context, memberID string) error
}

// Service implements room joins and roster management.
type Service struct {
	rooms     storage.RoomStore
	tokens    Tokens
	notifier  notify.Notifier
	pinSecret []byte

	now   func() time.Time
	newID func() (string, error)
}

// NewService wires a membership service. pinSecret keys the stored PIN
// digests and the per-room channel keys.
func NewService(rooms storage.RoomStore, tokens Tokens, notifier notify.Notifier, pinSecret []byte) *Service {
	if notifier == nil {
		notifier = notify.NewLogNotifier(nil)
	}
	return &Service{
		rooms:     rooms,
		tokens:    tokens,
		notifier:  notifier,
		pinSecret: pinSecret,
		now:       time.Now,
		newID:     id.NewID,
	}
}

// JoinResult is what a successful join hands back to the client.
type JoinResult struct {
	Token      string
	RoomID     string
	MemberID   string
	IsOwner    bool
	ChannelKey string
}

// Join resolves the PIN to a room, creating the room when the PIN is
// new, and adds the caller as a member. The first member to create a
// room becomes its owner. A full room rejects the join.
func (s *Service) Join(ctx context.Context, input room.JoinInput) (JoinResult, error) {
	input, err := room.NormalizeJoinInput(input)
	if err != nil {
		return JoinResult{}, joinInputError(err)
	}

	digest := room.PINDigest(s.pinSecret, input.PIN)
	memberID, err := s.newID()
	if err != nil {
		return JoinResult{}, fmt.Errorf("join room: %w", err)
	}
	now := s.now()

	found, isOwner, err := s.resolveRoom(ctx, digest, memberID, now)
	if err != nil {
		return JoinResult{}, fmt.Errorf("join room: %w", err)
	}

	member := storage.MemberRecord{
		ID:          memberID,
		RoomID:      found.ID,
		DeviceID:    input.DeviceID,
		DisplayName: input.DisplayName,
		JoinedAt:    now,
		LastSeenAt:  now,
	}
	if err := s.rooms.CreateMember(ctx, member, found.MemberLimit); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return JoinResult{}, apperrors.New(apperrors.CodeRoomFull, "room is at capacity")
		}
		return JoinResult{}, fmt.Errorf("join room: %w", err)
	}

	channelKey := s.channelKey(found.ID)
	issued, err := s.tokens.Issue(ctx, member.ID, found.ID, channelKey)
	if err != nil {
		// Release the seat so a retry is not blocked by a member row
		// that never received a session.
		if deleteErr := s.rooms.DeleteMember(ctx, member.ID); deleteErr != nil && !errors.Is(deleteErr, storage.ErrNotFound) {
			log.Printf("remove member %s after failed token issue: %v", member.ID, deleteErr)
		}
		return JoinResult{}, fmt.Errorf("join room: %w", err)
	}

	return JoinResult{
		Token:      issued,
		RoomID:     found.ID,
		MemberID:   member.ID,
		IsOwner:    isOwner,
		ChannelKey: channelKey,
	}, nil
}

// resolveRoom finds the room for a PIN digest, creating it when absent.
// A concurrent creator winning the unique digest race is re-resolved as
// an existing room.
func (s *Service) resolveRoom(ctx context.Context, digest, ownerMemberID string, now time.Time) (storage.RoomRecord, bool, error) {
	found, err := s.rooms.GetRoomByPINDigest(ctx, digest)
	if err == nil {
		return found, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.RoomRecord{}, false, err
	}

	roomID, err := s.newID()
	if err != nil {
		return storage.RoomRecord{}, false, err
	}
	created := storage.RoomRecord{
		ID:            roomID,
		PINDigest:     digest,
		OwnerMemberID: ownerMemberID,
		MemberLimit:   room.DefaultMemberLimit,
		CreatedAt:     now,
	}
	err = s.rooms.PutRoom(ctx, created)
	if err == nil {
		return created, true, nil
	}
	if errors.Is(err, storage.ErrConflict) {
		found, err := s.rooms.GetRoomByPINDigest(ctx, digest)
		if err != nil {
			return storage.RoomRecord{}, false, err
		}
		return found, false, nil
	}
	return storage.RoomRecord{}, false, err
}

// Member is a roster entry.
type Member struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	IsOwner     bool      `json:"is_owner"`
	JoinedAt    time.Time `json:"joined_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// List returns the room's roster ordered by join time.
func (s *Service) List(ctx context.Context, roomID string) ([]Member, error) {
	found, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "room not found")
		}
		return nil, fmt.Errorf("list members: %w", err)
	}
	records, err := s.rooms.ListMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members := make([]Member, 0, len(records))
	for _, record := range records {
		members = append(members, Member{
			ID:          record.ID,
			DisplayName: record.DisplayName,
			IsOwner:     record.ID == found.OwnerMemberID,
			JoinedAt:    record.JoinedAt,
			LastSeenAt:  record.LastSeenAt,
		})
	}
	return members, nil
}

// Evict removes a member from the room and revokes all of their
// sessions. Only the room owner may evict, and the owner cannot evict
// themselves.
func (s *Service) Evict(ctx context.Context, callerMemberID, roomID, targetMemberID string) error {
	found, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "room not found")
		}
		return fmt.Errorf("evict member: %w", err)
	}
	if callerMemberID != found.OwnerMemberID {
		return apperrors.New(apperrors.CodeNotAuthorized, "only the room owner can evict members")
	}
	if targetMemberID == found.OwnerMemberID {
		return apperrors.New(apperrors.CodeNotAuthorized, "the room owner cannot be evicted")
	}

	target, err := s.rooms.GetMember(ctx, targetMemberID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(apperrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return fmt.Errorf("evict member: %w", err)
	}
	if target.RoomID != roomID {
		return apperrors.New(apperrors.CodeNotFound, "member not found")
	}

	if err := s.tokens.RevokeMember(ctx, targetMemberID); err != nil {
		return fmt.Errorf("evict member: %w", err)
	}
	if err := s.rooms.DeleteMember(ctx, targetMemberID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("evict member: %w", err)
	}

	s.notifier.Publish(ctx, notify.Event{
		Type:     notify.EventMemberEvicted,
		RoomID:   roomID,
		MemberID: targetMemberID,
	})
	return nil
}

// Touch records member activity. Failures are the caller's to ignore.
func (s *Service) Touch(ctx context.Context, memberID string) error {
	return s.rooms.TouchMember(ctx, memberID, s.now())
}

// channelKey derives the room's broadcast channel key. It is stable for
// a room so every member subscribes to the same channel.
func (s *Service) channelKey(roomID string) string {
	mac := hmac.New(sha256.New, s.pinSecret)
	mac.Write([]byte("channel:" + roomID))
	return hex.EncodeToString(mac.Sum(nil))[:32]
}

func joinInputError(err error) error {
	switch {
	case errors.Is(err, room.ErrPINTooShort):
		return apperrors.New(apperrors.CodePinTooShort, "pin is too short")
	default:
		return apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid join input", err)
	}
}
