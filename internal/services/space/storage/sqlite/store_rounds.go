package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

// PutRound inserts a round. Round numbers are unique per game session; a
// duplicate insert yields ErrConflict.
func (s *Store) PutRound(ctx context.Context, record storage.RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("round id is required")
	}
	if strings.TrimSpace(record.GameSessionID) == "" {
		return fmt.Errorf("game session id is required")
	}
	if record.RoundNumber < 1 {
		return fmt.Errorf("round number must be positive")
	}
	if strings.TrimSpace(record.SituationText) == "" {
		return fmt.Errorf("situation text is required")
	}

	options, err := encodeStrings(record.Options)
	if err != nil {
		return err
	}
	valuesQuestions, err := encodeStrings(record.ValuesQuestions)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO space_rounds (
	id, game_session_id, round_number, category, situation_text, options,
	card_type, picker_id, responder_id, picker_answer, responder_answer,
	responder_custom, picker_revealed, ai_reflection, values_questions,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.GameSessionID,
		record.RoundNumber,
		record.Category,
		record.SituationText,
		options,
		record.CardType,
		record.PickerID,
		record.ResponderID,
		record.PickerAnswer,
		record.ResponderAnswer,
		record.ResponderCustom,
		boolToInt(record.PickerRevealed),
		record.AIReflection,
		valuesQuestions,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put round: %w", err)
	}
	return nil
}

// RepickRound rewrites a round's content and records the picker's answer.
// The write is guarded on the picker answer still being empty so a repick
// after a skip cannot clobber a round already in play.
func (s *Store) RepickRound(ctx context.Context, record storage.RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("round id is required")
	}
	if strings.TrimSpace(record.SituationText) == "" {
		return fmt.Errorf("situation text is required")
	}
	if strings.TrimSpace(record.PickerAnswer) == "" {
		return fmt.Errorf("picker answer is required")
	}

	options, err := encodeStrings(record.Options)
	if err != nil {
		return err
	}
	valuesQuestions, err := encodeStrings(record.ValuesQuestions)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_rounds
SET category = ?,
	situation_text = ?,
	options = ?,
	card_type = ?,
	values_questions = ?,
	picker_answer = ?,
	responder_answer = '',
	responder_custom = '',
	picker_revealed = 0,
	ai_reflection = '',
	updated_at = ?
WHERE id = ?
AND picker_answer = ''
`,
		record.Category,
		record.SituationText,
		options,
		record.CardType,
		valuesQuestions,
		record.PickerAnswer,
		toMillis(record.UpdatedAt),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("repick round: %w", err)
	}
	return conflictUnlessAffected(result, "repick round")
}

// GetRound fetches a round by game session and round number.
func (s *Store) GetRound(ctx context.Context, gameSessionID string, roundNumber int) (storage.RoundRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RoundRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RoundRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, game_session_id, round_number, category, situation_text, options,
	card_type, picker_id, responder_id, picker_answer, responder_answer,
	responder_custom, picker_revealed, ai_reflection, values_questions,
	created_at, updated_at
FROM space_rounds
WHERE game_session_id = ? AND round_number = ?
`, gameSessionID, roundNumber)

	var (
		rec                storage.RoundRecord
		optionsRaw         string
		valuesQuestionsRaw string
		revealed           int
		createdAt          int64
		updatedAt          int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.GameSessionID,
		&rec.RoundNumber,
		&rec.Category,
		&rec.SituationText,
		&optionsRaw,
		&rec.CardType,
		&rec.PickerID,
		&rec.ResponderID,
		&rec.PickerAnswer,
		&rec.ResponderAnswer,
		&rec.ResponderCustom,
		&revealed,
		&rec.AIReflection,
		&valuesQuestionsRaw,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RoundRecord{}, storage.ErrNotFound
		}
		return storage.RoundRecord{}, fmt.Errorf("scan round: %w", err)
	}

	rec.Options, err = decodeStrings(optionsRaw)
	if err != nil {
		return storage.RoundRecord{}, err
	}
	rec.ValuesQuestions, err = decodeStrings(valuesQuestionsRaw)
	if err != nil {
		return storage.RoundRecord{}, err
	}
	rec.PickerRevealed = revealed != 0
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

// SetRoundResponse writes the responder's answer. Last write wins while the
// round is unrevealed; answers freeze once the picker has revealed.
func (s *Store) SetRoundResponse(ctx context.Context, roundID, answer, custom string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_rounds
SET responder_answer = ?, responder_custom = ?, updated_at = ?
WHERE id = ?
AND picker_revealed = 0
`,
		answer,
		custom,
		toMillis(at),
		roundID,
	)
	if err != nil {
		return fmt.Errorf("set round response: %w", err)
	}
	return conflictUnlessAffected(result, "set round response")
}

// RevealRound marks the picker's answer as revealed.
func (s *Store) RevealRound(ctx context.Context, roundID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_rounds
SET picker_revealed = 1, updated_at = ?
WHERE id = ?
`, toMillis(at), roundID)
	if err != nil {
		return fmt.Errorf("reveal round: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reveal round rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetRoundReflection persists generated reflection text on a round.
func (s *Store) SetRoundReflection(ctx context.Context, roundID, reflection string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(reflection) == "" {
		return fmt.Errorf("reflection is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_rounds
SET ai_reflection = ?, updated_at = ?
WHERE id = ?
`, reflection, toMillis(at), roundID)
	if err != nil {
		return fmt.Errorf("set round reflection: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set round reflection rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ResetRound replaces the situation content and clears answer, reveal, and
// reflection state while keeping the round number.
func (s *Store) ResetRound(ctx context.Context, roundID, situationText string, options []string, cardType string, valuesQuestions []string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(situationText) == "" {
		return fmt.Errorf("situation text is required")
	}

	optionsRaw, err := encodeStrings(options)
	if err != nil {
		return err
	}
	valuesQuestionsRaw, err := encodeStrings(valuesQuestions)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_rounds
SET situation_text = ?,
	options = ?,
	card_type = ?,
	values_questions = ?,
	picker_answer = '',
	responder_answer = '',
	responder_custom = '',
	picker_revealed = 0,
	ai_reflection = '',
	updated_at = ?
WHERE id = ?
`,
		situationText,
		optionsRaw,
		cardType,
		valuesQuestionsRaw,
		toMillis(at),
		roundID,
	)
	if err != nil {
		return fmt.Errorf("reset round: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset round rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
