// Package game orchestrates the two-role game sessions played inside a
// room: the lobby/active/completed state machine, the consent gate, and
// the round lifecycle. Every state transition is a single conditional
// write; losing a race yields an error, never a double transition.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/kopcaptz/daybookai/internal/platform/errors"
	"github.com/kopcaptz/daybookai/internal/platform/id"
	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
	"github.com/kopcaptz/daybookai/internal/services/space/generation"
	"github.com/kopcaptz/daybookai/internal/services/space/notify"
	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

// Service orchestrates game sessions and rounds.
type Service struct {
	games     storage.GameStore
	rounds    storage.RoundStore
	generator generation.Generator
	notifier  notify.Notifier

	now   func() time.Time
	newID func() (string, error)
}

// NewService wires a game service.
func NewService(games storage.GameStore, rounds storage.RoundStore, generator generation.Generator, notifier notify.Notifier) *Service {
	if generator == nil {
		generator = generation.Disabled{}
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(nil)
	}
	return &Service{
		games:     games,
		rounds:    rounds,
		generator: generator,
		notifier:  notifier,
		now:       time.Now,
		newID:     id.NewID,
	}
}

// Session is the API-facing view of a game session.
type Session struct {
	ID               string          `json:"id"`
	RoomID           string          `json:"room_id"`
	PickerID         string          `json:"picker_id"`
	ResponderID      string          `json:"responder_id,omitempty"`
	Status           play.Status     `json:"status"`
	AdultLevel       int             `json:"adult_level"`
	Boundaries       play.Boundaries `json:"boundaries"`
	ConsentPicker    bool            `json:"consent_picker"`
	ConsentResponder bool            `json:"consent_responder"`
	CurrentRound     int             `json:"current_round"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toSession(record storage.GameSessionRecord) Session {
	return Session{
		ID:               record.ID,
		RoomID:           record.RoomID,
		PickerID:         record.PickerID,
		ResponderID:      record.ResponderID,
		Status:           record.Status,
		AdultLevel:       record.AdultLevel,
		Boundaries:       record.Boundaries,
		ConsentPicker:    record.ConsentPicker,
		ConsentResponder: record.ConsentResponder,
		CurrentRound:     record.CurrentRound,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

// Create opens a new lobby session with the caller as picker. Level zero
// needs no consent ceremony, so both flags start true there; any higher
// level starts unconsented.
func (s *Service) Create(ctx context.Context, callerMemberID, roomID string, adultLevel int) (Session, error) {
	if err := play.ValidateAdultLevel(adultLevel); err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidRequest, "adult level is out of range", err)
	}
	sessionID, err := s.newID()
	if err != nil {
		return Session{}, fmt.Errorf("create game session: %w", err)
	}
	now := s.now()
	record := storage.GameSessionRecord{
		ID:           sessionID,
		RoomID:       roomID,
		PickerID:     callerMemberID,
		Status:       play.StatusLobby,
		AdultLevel:   adultLevel,
		Boundaries:   play.Boundaries{},
		CurrentRound: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if adultLevel == 0 {
		record.ConsentPicker = true
		record.ConsentResponder = true
	}
	if err := s.games.PutGameSession(ctx, record); err != nil {
		return Session{}, fmt.Errorf("create game session: %w", err)
	}
	return toSession(record), nil
}

// Get returns one of the room's sessions.
func (s *Service) Get(ctx context.Context, roomID, gameSessionID string) (Session, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return Session{}, err
	}
	return toSession(record), nil
}

// List returns the room's sessions, newest first.
func (s *Service) List(ctx context.Context, roomID string) ([]Session, error) {
	records, err := s.games.ListGameSessions(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list game sessions: %w", err)
	}
	sessions := make([]Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, toSession(record))
	}
	return sessions, nil
}

// Join claims the responder seat. Rejoining as the current responder is
// a no-op; any other occupied-seat case is rejected.
func (s *Service) Join(ctx context.Context, callerMemberID, roomID, gameSessionID string) (Session, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return Session{}, err
	}
	if record.ResponderID == callerMemberID {
		return toSession(record), nil
	}
	if record.PickerID == callerMemberID {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the picker cannot also respond")
	}

	err = s.games.ClaimResponder(ctx, gameSessionID, callerMemberID, s.now())
	if errors.Is(err, storage.ErrConflict) {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the session already has a responder")
	}
	if err != nil {
		return Session{}, fmt.Errorf("join game session: %w", err)
	}
	return s.Get(ctx, roomID, gameSessionID)
}

// Start activates a lobby session. At any level above zero both
// participants must have consented first.
func (s *Service) Start(ctx context.Context, callerMemberID, roomID, gameSessionID string) (Session, error) {
	record, err := s.participantSession(ctx, callerMemberID, roomID, gameSessionID)
	if err != nil {
		return Session{}, err
	}
	if record.ResponderID == "" {
		return Session{}, apperrors.New(apperrors.CodeNeedResponder, "a responder must join before starting")
	}
	if err := play.StartAllowed(record.AdultLevel, record.ConsentPicker, record.ConsentResponder); err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeConsentRequired, "both participants must consent", err)
	}

	err = s.games.ActivateGameSession(ctx, gameSessionID, s.now())
	if errors.Is(err, storage.ErrConflict) {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the session has already started")
	}
	if err != nil {
		return Session{}, fmt.Errorf("start game session: %w", err)
	}

	s.notifier.Publish(ctx, notify.Event{
		Type:          notify.EventGameStarted,
		RoomID:        roomID,
		GameSessionID: gameSessionID,
		Round:         1,
	})
	return s.Get(ctx, roomID, gameSessionID)
}

// End forces a session to completed. Either participant may end at any
// time, and ending an already-completed session succeeds quietly.
func (s *Service) End(ctx context.Context, callerMemberID, roomID, gameSessionID string) (Session, error) {
	record, err := s.participantSession(ctx, callerMemberID, roomID, gameSessionID)
	if err != nil {
		return Session{}, err
	}
	if record.Status != play.StatusCompleted {
		err = s.games.CompleteGameSession(ctx, gameSessionID, s.now())
		if err != nil && !errors.Is(err, storage.ErrConflict) {
			return Session{}, fmt.Errorf("end game session: %w", err)
		}
		if err == nil {
			s.notifier.Publish(ctx, notify.Event{
				Type:          notify.EventGameEnded,
				RoomID:        roomID,
				GameSessionID: gameSessionID,
			})
		}
	}
	return s.Get(ctx, roomID, gameSessionID)
}

// roomSession loads a session and hides sessions of other rooms.
func (s *Service) roomSession(ctx context.Context, roomID, gameSessionID string) (storage.GameSessionRecord, error) {
	record, err := s.games.GetGameSession(ctx, gameSessionID)
	if err != nil || record.RoomID != roomID {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return storage.GameSessionRecord{}, fmt.Errorf("get game session: %w", err)
		}
		return storage.GameSessionRecord{}, apperrors.New(apperrors.CodeSessionNotFound, "game session not found")
	}
	return record, nil
}

// participantSession additionally requires the caller to hold a seat.
func (s *Service) participantSession(ctx context.Context, callerMemberID, roomID, gameSessionID string) (storage.GameSessionRecord, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return storage.GameSessionRecord{}, err
	}
	if callerMemberID != record.PickerID && callerMemberID != record.ResponderID {
		return storage.GameSessionRecord{}, apperrors.New(apperrors.CodeNotAuthorized, "only participants may do this")
	}
	return record, nil
}

func normalizeAnswer(answer string) string {
	return strings.TrimSpace(answer)
}
