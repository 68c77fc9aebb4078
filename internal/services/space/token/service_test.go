package token

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/kopcaptz/daybookai/internal/platform/errors"
	"github.com/kopcaptz/daybookai/internal/services/space/storage"
	"github.com/kopcaptz/daybookai/internal/services/space/storage/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "space.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	codec, err := NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return NewService(codec, store, store, 24*time.Hour), store
}

func seedMember(t *testing.T, store *sqlite.Store) (storage.RoomRecord, storage.MemberRecord) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	room := storage.RoomRecord{
		ID:            "room-1",
		PINDigest:     "digest-1",
		OwnerMemberID: "member-1",
		MemberLimit:   5,
		CreatedAt:     now,
	}
	if err := store.PutRoom(ctx, room); err != nil {
		t.Fatalf("put room: %v", err)
	}
	member := storage.MemberRecord{
		ID:          "member-1",
		RoomID:      "room-1",
		DeviceID:    "device-1",
		DisplayName: "Alex",
		JoinedAt:    now,
		LastSeenAt:  now,
	}
	if err := store.CreateMember(ctx, member, room.MemberLimit); err != nil {
		t.Fatalf("create member: %v", err)
	}
	return room, member
}

func TestIssueAndVerify(t *testing.T) {
	service, store := newTestService(t)
	room, member := seedMember(t, store)
	ctx := context.Background()

	encoded, err := service.Issue(ctx, member.ID, room.ID, "channel-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	principal, err := service.Verify(ctx, encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.Member.ID != member.ID {
		t.Fatalf("expected member %s, got %s", member.ID, principal.Member.ID)
	}
	if principal.Room.ID != room.ID {
		t.Fatalf("expected room %s, got %s", room.ID, principal.Room.ID)
	}
	if principal.SessionID == "" {
		t.Fatal("expected a session id")
	}
}

func TestVerifyCollapsesFailures(t *testing.T) {
	service, store := newTestService(t)
	_, member := seedMember(t, store)
	ctx := context.Background()

	valid, err := service.Issue(ctx, member.ID, "room-1", "channel-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	principal, err := service.Verify(ctx, valid)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	orphan, err := service.Issue(ctx, "member-gone", "room-1", "channel-1")
	if err != nil {
		t.Fatalf("issue orphan: %v", err)
	}

	if err := service.Revoke(ctx, principal.SessionID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	cases := map[string]string{
		"empty token":    "",
		"garbage token":  "not.atoken",
		"revoked token":  valid,
		"member deleted": orphan,
	}
	for name, token := range cases {
		_, err := service.Verify(ctx, token)
		if apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
			t.Errorf("%s: expected unauthorized, got %v", name, err)
		}
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	service, store := newTestService(t)
	_, member := seedMember(t, store)
	ctx := context.Background()

	encoded, err := service.Issue(ctx, member.ID, "room-1", "channel-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	principal, err := service.Verify(ctx, encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := service.Revoke(ctx, principal.SessionID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := service.Revoke(ctx, principal.SessionID); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if err := service.Revoke(ctx, "never-existed"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}
}

func TestRevokeMemberCutsAllSessions(t *testing.T) {
	service, store := newTestService(t)
	_, member := seedMember(t, store)
	ctx := context.Background()

	first, err := service.Issue(ctx, member.ID, "room-1", "channel-1")
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := service.Issue(ctx, member.ID, "room-1", "channel-1")
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if err := service.RevokeMember(ctx, member.ID); err != nil {
		t.Fatalf("revoke member: %v", err)
	}

	for name, token := range map[string]string{"first": first, "second": second} {
		if _, err := service.Verify(ctx, token); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
			t.Errorf("%s token: expected unauthorized, got %v", name, err)
		}
	}
}

func TestVerifyHonorsStoredExpiry(t *testing.T) {
	service, store := newTestService(t)
	_, member := seedMember(t, store)
	ctx := context.Background()

	encoded, err := service.Issue(ctx, member.ID, "room-1", "channel-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	service.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := service.Verify(ctx, encoded); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized after expiry, got %v", err)
	}
}

func TestIssueSurfacesIDGenerationFailure(t *testing.T) {
	service, _ := newTestService(t)
	service.newID = func() (string, error) { return "", errors.New("entropy exhausted") }

	if _, err := service.Issue(context.Background(), "member-1", "room-1", "channel"); err == nil {
		t.Fatal("expected issue to fail when id generation fails")
	}
}

func TestNilServiceIsSafe(t *testing.T) {
	var service *Service
	ctx := context.Background()

	if _, err := service.Verify(ctx, "anything"); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized from nil service, got %v", err)
	}
	if err := service.Revoke(ctx, "session-1"); err != nil {
		t.Fatalf("expected nil revoke to succeed, got %v", err)
	}
	if err := service.RevokeMember(ctx, "member-1"); err != nil {
		t.Fatalf("expected nil revoke member to succeed, got %v", err)
	}
	if _, err := service.Issue(ctx, "m", "r", "c"); err == nil {
		t.Fatal("expected error issuing from nil service")
	}
}
