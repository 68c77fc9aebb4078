package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kopcaptz/daybookai/internal/platform/errors"
	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
	"github.com/kopcaptz/daybookai/internal/services/space/generation"
	"github.com/kopcaptz/daybookai/internal/services/space/notify"
	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

// Generate produces situation candidates for the current round. Picker
// only; the category must be available at the session's adult level.
func (s *Service) Generate(ctx context.Context, callerMemberID, roomID, gameSessionID, categoryID string) ([]generation.Situation, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return nil, err
	}
	if callerMemberID != record.PickerID {
		return nil, apperrors.New(apperrors.CodeNotPicker, "only the picker may generate situations")
	}
	if record.Status != play.StatusActive {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "the session is not active")
	}
	category, err := s.availableCategory(categoryID, record.AdultLevel)
	if err != nil {
		return nil, err
	}

	situations, err := s.generator.GenerateSituations(ctx, generation.SituationRequest{
		Category:    category,
		AdultLevel:  record.AdultLevel,
		Boundaries:  record.Boundaries,
		RoundNumber: record.CurrentRound,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeGenerationFailed, "situation generation failed", err)
	}
	return situations, nil
}

// PickInput is the picker's chosen situation plus their own answer.
type PickInput struct {
	CategoryID      string
	SituationText   string
	CardType        play.CardType
	Options         []string
	ValuesQuestions []string
	PickerAnswer    string
}

// Pick creates the current round from a chosen situation. Picker only;
// one round per round number.
func (s *Service) Pick(ctx context.Context, callerMemberID, roomID, gameSessionID string, input PickInput) (RoundView, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return RoundView{}, err
	}
	if callerMemberID != record.PickerID {
		return RoundView{}, apperrors.New(apperrors.CodeNotPicker, "only the picker may create the round")
	}
	if record.Status != play.StatusActive {
		return RoundView{}, apperrors.New(apperrors.CodeInvalidRequest, "the session is not active")
	}
	category, err := s.availableCategory(input.CategoryID, record.AdultLevel)
	if err != nil {
		return RoundView{}, err
	}
	if err := validatePick(input); err != nil {
		return RoundView{}, err
	}

	roundID, err := s.newID()
	if err != nil {
		return RoundView{}, fmt.Errorf("create round: %w", err)
	}
	now := s.now()
	round := storage.RoundRecord{
		ID:              roundID,
		GameSessionID:   record.ID,
		RoundNumber:     record.CurrentRound,
		Category:        category.ID,
		SituationText:   input.SituationText,
		Options:         input.Options,
		CardType:        string(input.CardType),
		PickerID:        record.PickerID,
		ResponderID:     record.ResponderID,
		PickerAnswer:    input.PickerAnswer,
		ValuesQuestions: input.ValuesQuestions,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.rounds.PutRound(ctx, round)
	if errors.Is(err, storage.ErrConflict) {
		return s.repick(ctx, round, callerMemberID)
	}
	if err != nil {
		return RoundView{}, fmt.Errorf("create round: %w", err)
	}
	return roundView(round, callerMemberID), nil
}

// repick overwrites the round row a skip left behind with an empty picker
// answer. Any other existing round means the pick already happened.
func (s *Service) repick(ctx context.Context, round storage.RoundRecord, callerMemberID string) (RoundView, error) {
	existing, err := s.rounds.GetRound(ctx, round.GameSessionID, round.RoundNumber)
	if err != nil {
		return RoundView{}, fmt.Errorf("repick round: %w", err)
	}
	round.ID = existing.ID
	round.CreatedAt = existing.CreatedAt

	err = s.rounds.RepickRound(ctx, round)
	if errors.Is(err, storage.ErrConflict) {
		return RoundView{}, apperrors.New(apperrors.CodeInvalidRequest, "the round has already been created")
	}
	if err != nil {
		return RoundView{}, fmt.Errorf("repick round: %w", err)
	}
	return roundView(round, callerMemberID), nil
}

func validatePick(input PickInput) error {
	if normalizeAnswer(input.SituationText) == "" {
		return apperrors.New(apperrors.CodeInvalidRequest, "a situation is required")
	}
	if !play.IsValidCardType(input.CardType) {
		return apperrors.New(apperrors.CodeInvalidRequest, "unknown card type")
	}
	if normalizeAnswer(input.PickerAnswer) == "" {
		return apperrors.New(apperrors.CodeInvalidRequest, "an answer is required")
	}
	if input.CardType == play.CardTypeChoice {
		if len(input.Options) < generation.MinChoiceOptions {
			return apperrors.New(apperrors.CodeInvalidRequest, "a choice card needs options")
		}
		for _, option := range input.Options {
			if option == input.PickerAnswer {
				return nil
			}
		}
		return apperrors.New(apperrors.CodeInvalidRequest, "the answer must be one of the options")
	}
	return nil
}

// RoundView is the API-facing round. The picker's answer stays hidden
// from everyone else until the picker reveals it.
type RoundView struct {
	ID              string    `json:"id"`
	GameSessionID   string    `json:"game_session_id"`
	RoundNumber     int       `json:"round_number"`
	Category        string    `json:"category"`
	SituationText   string    `json:"situation_text"`
	Options         []string  `json:"options,omitempty"`
	CardType        string    `json:"card_type"`
	PickerID        string    `json:"picker_id"`
	ResponderID     string    `json:"responder_id"`
	PickerAnswer    string    `json:"picker_answer,omitempty"`
	ResponderAnswer string    `json:"responder_answer,omitempty"`
	ResponderCustom string    `json:"responder_custom,omitempty"`
	PickerRevealed  bool      `json:"picker_revealed"`
	AIReflection    string    `json:"ai_reflection,omitempty"`
	ValuesQuestions []string  `json:"values_questions,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func roundView(record storage.RoundRecord, viewerMemberID string) RoundView {
	view := RoundView{
		ID:              record.ID,
		GameSessionID:   record.GameSessionID,
		RoundNumber:     record.RoundNumber,
		Category:        record.Category,
		SituationText:   record.SituationText,
		Options:         record.Options,
		CardType:        record.CardType,
		PickerID:        record.PickerID,
		ResponderID:     record.ResponderID,
		PickerAnswer:    record.PickerAnswer,
		ResponderAnswer: record.ResponderAnswer,
		ResponderCustom: record.ResponderCustom,
		PickerRevealed:  record.PickerRevealed,
		AIReflection:    record.AIReflection,
		ValuesQuestions: record.ValuesQuestions,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
	if !record.PickerRevealed && viewerMemberID != record.PickerID {
		view.PickerAnswer = ""
	}
	return view
}

// CurrentRound returns the session's current round as seen by the
// caller.
func (s *Service) CurrentRound(ctx context.Context, callerMemberID, roomID, gameSessionID string) (RoundView, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return RoundView{}, err
	}
	round, err := s.currentRoundRecord(ctx, record)
	if err != nil {
		return RoundView{}, err
	}
	return roundView(round, callerMemberID), nil
}

// Respond records the responder's answer. Last write wins until the
// picker reveals, after which the answer is frozen.
func (s *Service) Respond(ctx context.Context, callerMemberID, roomID, gameSessionID, answer, customAnswer string) (RoundView, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return RoundView{}, err
	}
	round, err := s.currentRoundRecord(ctx, record)
	if err != nil {
		return RoundView{}, err
	}
	if callerMemberID != round.ResponderID {
		return RoundView{}, apperrors.New(apperrors.CodeNotResponder, "only the responder may answer")
	}
	answer = normalizeAnswer(answer)
	customAnswer = normalizeAnswer(customAnswer)
	if answer == "" && customAnswer == "" {
		return RoundView{}, apperrors.New(apperrors.CodeInvalidRequest, "an answer is required")
	}

	err = s.rounds.SetRoundResponse(ctx, round.ID, answer, customAnswer, s.now())
	if errors.Is(err, storage.ErrConflict) {
		return RoundView{}, apperrors.New(apperrors.CodeInvalidRequest, "the answer is frozen after reveal")
	}
	if err != nil {
		return RoundView{}, fmt.Errorf("record response: %w", err)
	}
	return s.CurrentRound(ctx, callerMemberID, roomID, gameSessionID)
}

// Reveal uncovers the picker's answer for the current round.
func (s *Service) Reveal(ctx context.Context, callerMemberID, roomID, gameSessionID string) (RoundView, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return RoundView{}, err
	}
	round, err := s.currentRoundRecord(ctx, record)
	if err != nil {
		return RoundView{}, err
	}
	if callerMemberID != round.PickerID {
		return RoundView{}, apperrors.New(apperrors.CodeNotPicker, "only the picker may reveal")
	}

	if err := s.rounds.RevealRound(ctx, round.ID, s.now()); err != nil {
		return RoundView{}, fmt.Errorf("reveal round: %w", err)
	}
	return s.CurrentRound(ctx, callerMemberID, roomID, gameSessionID)
}

// Reflect generates and stores a reflection over both answers. The
// generation call happens before the single persisting write, so a
// failed call leaves the round untouched.
func (s *Service) Reflect(ctx context.Context, callerMemberID, roomID, gameSessionID string) (RoundView, error) {
	record, err := s.participantSession(ctx, callerMemberID, roomID, gameSessionID)
	if err != nil {
		return RoundView{}, err
	}
	round, err := s.currentRoundRecord(ctx, record)
	if err != nil {
		return RoundView{}, err
	}
	responderAnswer := round.ResponderAnswer
	if responderAnswer == "" {
		responderAnswer = round.ResponderCustom
	}
	if round.PickerAnswer == "" || responderAnswer == "" {
		return RoundView{}, apperrors.New(apperrors.CodeRoundIncomplete, "both answers are required first")
	}

	reflection, err := s.generator.GenerateReflection(ctx, generation.ReflectionRequest{
		SituationText:   round.SituationText,
		PickerAnswer:    round.PickerAnswer,
		ResponderAnswer: responderAnswer,
	})
	if err != nil {
		return RoundView{}, apperrors.Wrap(apperrors.CodeGenerationFailed, "reflection generation failed", err)
	}
	if err := s.rounds.SetRoundReflection(ctx, round.ID, reflection, s.now()); err != nil {
		return RoundView{}, fmt.Errorf("store reflection: %w", err)
	}
	return s.CurrentRound(ctx, callerMemberID, roomID, gameSessionID)
}

// Next swaps the two roles and moves to the following round. The swap is
// the fairness mechanic: the responder of this round picks the next one.
func (s *Service) Next(ctx context.Context, callerMemberID, roomID, gameSessionID string) (Session, error) {
	record, err := s.participantSession(ctx, callerMemberID, roomID, gameSessionID)
	if err != nil {
		return Session{}, err
	}
	if record.Status != play.StatusActive {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the session is not active")
	}

	err = s.games.AdvanceRound(ctx, gameSessionID, record.CurrentRound, s.now())
	if errors.Is(err, storage.ErrConflict) {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the round has already advanced")
	}
	if err != nil {
		return Session{}, fmt.Errorf("advance round: %w", err)
	}

	s.notifier.Publish(ctx, notify.Event{
		Type:          notify.EventRoundAdvanced,
		RoomID:        roomID,
		GameSessionID: gameSessionID,
		Round:         record.CurrentRound + 1,
	})
	return s.Get(ctx, roomID, gameSessionID)
}

// Skip replaces the current round's situation with a fresh one for the
// same category and resets every answer, keeping the round number. The
// generation call precedes the write; a failed call changes nothing.
func (s *Service) Skip(ctx context.Context, callerMemberID, roomID, gameSessionID string) (RoundView, error) {
	record, err := s.roomSession(ctx, roomID, gameSessionID)
	if err != nil {
		return RoundView{}, err
	}
	if callerMemberID != record.PickerID {
		return RoundView{}, apperrors.New(apperrors.CodeNotPicker, "only the picker may skip")
	}
	if record.Status != play.StatusActive {
		return RoundView{}, apperrors.New(apperrors.CodeInvalidRequest, "the session is not active")
	}
	round, err := s.currentRoundRecord(ctx, record)
	if err != nil {
		return RoundView{}, err
	}
	category, err := s.availableCategory(round.Category, record.AdultLevel)
	if err != nil {
		return RoundView{}, err
	}

	situations, err := s.generator.GenerateSituations(ctx, generation.SituationRequest{
		Category:    category,
		AdultLevel:  record.AdultLevel,
		Boundaries:  record.Boundaries,
		RoundNumber: record.CurrentRound,
	})
	if err != nil {
		return RoundView{}, apperrors.Wrap(apperrors.CodeGenerationFailed, "situation generation failed", err)
	}
	if len(situations) == 0 {
		return RoundView{}, apperrors.New(apperrors.CodeGenerationFailed, "situation generation returned nothing")
	}
	fresh := situations[0]

	err = s.rounds.ResetRound(ctx, round.ID, fresh.Text, fresh.Options, string(fresh.CardType), fresh.ValuesQuestions, s.now())
	if err != nil {
		return RoundView{}, fmt.Errorf("reset round: %w", err)
	}
	return s.CurrentRound(ctx, callerMemberID, roomID, gameSessionID)
}

func (s *Service) currentRoundRecord(ctx context.Context, record storage.GameSessionRecord) (storage.RoundRecord, error) {
	if record.CurrentRound == 0 {
		return storage.RoundRecord{}, apperrors.New(apperrors.CodeNotFound, "no current round")
	}
	round, err := s.rounds.GetRound(ctx, record.ID, record.CurrentRound)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.RoundRecord{}, apperrors.New(apperrors.CodeNotFound, "no current round")
		}
		return storage.RoundRecord{}, fmt.Errorf("get round: %w", err)
	}
	return round, nil
}

func (s *Service) availableCategory(categoryID string, adultLevel int) (play.Category, error) {
	category, ok := play.CategoryByID(categoryID)
	if !ok {
		return play.Category{}, apperrors.New(apperrors.CodeInvalidRequest, "unknown category")
	}
	if !play.CategoryAvailable(category, adultLevel) {
		return play.Category{}, apperrors.New(apperrors.CodeCategoryUnavailable, "the category needs a higher adult level")
	}
	return category, nil
}
