// Package storage defines the persistence records and store contracts for the
// private-space service. The relational store is the single source of truth;
// services hold no mutable state of their own.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a conditional write found unexpected current state.
var ErrConflict = errors.New("record conflict")

// RoomRecord stores a PIN-identified shared space.
type RoomRecord struct {
	ID            string
	PINDigest     string
	OwnerMemberID string
	MemberLimit   int
	CreatedAt     time.Time
}

// MemberRecord stores a device-bound identity scoped to one room.
type MemberRecord struct {
	ID          string
	RoomID      string
	DeviceID    string
	DisplayName string
	JoinedAt    time.Time
	LastSeenAt  time.Time
}

// SessionRecord backs an issued token. Deleting the row is the sole
// revocation mechanism; signature validity alone never authenticates.
type SessionRecord struct {
	ID         string
	MemberID   string
	RoomID     string
	ChannelKey string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// GameSessionRecord stores one play-through of the two-role game.
// Rows are never deleted; history is retained.
type GameSessionRecord struct {
	ID               string
	RoomID           string
	PickerID         string
	ResponderID      string
	Status           play.Status
	AdultLevel       int
	Boundaries       play.Boundaries
	ConsentPicker    bool
	ConsentResponder bool
	CurrentRound     int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RoundRecord stores one situation presented within a game session.
// PickerID and ResponderID snapshot the acting roles at creation time so
// role history survives later swaps.
type RoundRecord struct {
	ID              string
	GameSessionID   string
	RoundNumber     int
	Category        string
	SituationText   string
	Options         []string
	CardType        string
	PickerID        string
	ResponderID     string
	PickerAnswer    string
	ResponderAnswer string
	ResponderCustom string
	PickerRevealed  bool
	AIReflection    string
	ValuesQuestions []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RoomStore persists rooms and their members.
type RoomStore interface {
	PutRoom(ctx context.Context, record RoomRecord) error
	GetRoom(ctx context.Context, roomID string) (RoomRecord, error)
	GetRoomByPINDigest(ctx context.Context, digest string) (RoomRecord, error)

	// CreateMember inserts a member only while the room holds fewer than
	// memberLimit members; a full room yields ErrConflict.
	CreateMember(ctx context.Context, record MemberRecord, memberLimit int) error
	GetMember(ctx context.Context, memberID string) (MemberRecord, error)
	ListMembers(ctx context.Context, roomID string) ([]MemberRecord, error)
	DeleteMember(ctx context.Context, memberID string) error
	TouchMember(ctx context.Context, memberID string, seenAt time.Time) error
}

// SessionStore persists token-backing sessions.
type SessionStore interface {
	PutSession(ctx context.Context, record SessionRecord) error
	GetSession(ctx context.Context, sessionID string) (SessionRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteMemberSessions(ctx context.Context, memberID string) error
}

// ConsentUpdate carries the post-merge consent state written in one update.
type ConsentUpdate struct {
	Boundaries       play.Boundaries
	AdultLevel       int
	ConsentPicker    bool
	ConsentResponder bool
	UpdatedAt        time.Time
}

// GameStore persists game sessions. All state transitions are
// status-conditioned writes; a lost race yields ErrConflict, never a
// double transition.
type GameStore interface {
	PutGameSession(ctx context.Context, record GameSessionRecord) error
	GetGameSession(ctx context.Context, gameSessionID string) (GameSessionRecord, error)
	ListGameSessions(ctx context.Context, roomID string) ([]GameSessionRecord, error)

	// ClaimResponder sets the responder on a lobby session that has none.
	ClaimResponder(ctx context.Context, gameSessionID, responderID string, at time.Time) error
	// ActivateGameSession moves lobby -> active and sets round one.
	ActivateGameSession(ctx context.Context, gameSessionID string, at time.Time) error
	// UpdateConsent writes merged boundaries, level, and consent flags on a
	// non-completed session.
	UpdateConsent(ctx context.Context, gameSessionID string, update ConsentUpdate) error
	// DowngradeLevel lowers the adult level and rewrites both consent flags
	// only while the stored level is still above newLevel.
	DowngradeLevel(ctx context.Context, gameSessionID string, newLevel int, consentPicker, consentResponder bool, at time.Time) error
	// AdvanceRound swaps picker/responder and increments the round by one,
	// conditioned on the expected current round.
	AdvanceRound(ctx context.Context, gameSessionID string, expectedRound int, at time.Time) error
	// CompleteGameSession forces a non-terminal session to completed.
	CompleteGameSession(ctx context.Context, gameSessionID string, at time.Time) error
}

// RoundStore persists rounds. Rows are created once per round advance and
// never deleted.
type RoundStore interface {
	// PutRound inserts a round; a duplicate round number for the session
	// yields ErrConflict.
	PutRound(ctx context.Context, record RoundRecord) error
	GetRound(ctx context.Context, gameSessionID string, roundNumber int) (RoundRecord, error)

	// RepickRound rewrites an existing round's content and picker answer.
	// Only a round whose picker answer is still empty can be repicked; a
	// played round yields ErrConflict.
	RepickRound(ctx context.Context, record RoundRecord) error

	// SetRoundResponse writes the responder's answer; last write wins until
	// the round is revealed, after which the write yields ErrConflict.
	SetRoundResponse(ctx context.Context, roundID, answer, custom string, at time.Time) error
	RevealRound(ctx context.Context, roundID string, at time.Time) error
	SetRoundReflection(ctx context.Context, roundID, reflection string, at time.Time) error
	// ResetRound replaces the situation content and clears answers, reveal,
	// and reflection while keeping the same round number.
	ResetRound(ctx context.Context, roundID, situationText string, options []string, cardType string, valuesQuestions []string, at time.Time) error
}

// Store aggregates every store contract the service needs.
type Store interface {
	RoomStore
	SessionStore
	GameStore
	RoundStore
}
