package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

func encodeBoundaries(value play.Boundaries) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal boundaries: %w", err)
	}
	return string(encoded), nil
}

func decodeBoundaries(value string) (play.Boundaries, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "{}" {
		return play.Boundaries{}, nil
	}
	var out play.Boundaries
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return play.Boundaries{}, fmt.Errorf("unmarshal boundaries: %w", err)
	}
	return out, nil
}

// PutGameSession inserts a game session record.
func (s *Store) PutGameSession(ctx context.Context, record storage.GameSessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("game session id is required")
	}
	if strings.TrimSpace(record.RoomID) == "" {
		return fmt.Errorf("room id is required")
	}
	if strings.TrimSpace(record.PickerID) == "" {
		return fmt.Errorf("picker id is required")
	}
	if record.Status == play.StatusUnspecified {
		return fmt.Errorf("status is required")
	}

	boundaries, err := encodeBoundaries(record.Boundaries)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO space_game_sessions (
	id, room_id, picker_id, responder_id, status, adult_level, boundaries,
	consent_picker, consent_responder, current_round, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.RoomID,
		record.PickerID,
		record.ResponderID,
		string(record.Status),
		record.AdultLevel,
		boundaries,
		boolToInt(record.ConsentPicker),
		boolToInt(record.ConsentResponder),
		record.CurrentRound,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put game session: %w", err)
	}
	return nil
}

const gameSessionColumns = `
id, room_id, picker_id, responder_id, status, adult_level, boundaries,
consent_picker, consent_responder, current_round, created_at, updated_at
`

// GetGameSession fetches a game session by ID.
func (s *Store) GetGameSession(ctx context.Context, gameSessionID string) (storage.GameSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameSessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.GameSessionRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+gameSessionColumns+`
FROM space_game_sessions
WHERE id = ?
`, gameSessionID)
	return scanGameSessionRow(row.Scan)
}

// ListGameSessions returns a room's game sessions, newest first.
func (s *Store) ListGameSessions(ctx context.Context, roomID string) ([]storage.GameSessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+gameSessionColumns+`
FROM space_game_sessions
WHERE room_id = ?
ORDER BY created_at DESC, id DESC
`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list game sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []storage.GameSessionRecord
	for rows.Next() {
		rec, err := scanGameSessionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game sessions: %w", err)
	}
	return sessions, nil
}

func scanGameSessionRow(scan func(dest ...any) error) (storage.GameSessionRecord, error) {
	var (
		rec              storage.GameSessionRecord
		status           string
		boundariesRaw    string
		consentPicker    int
		consentResponder int
		createdAt        int64
		updatedAt        int64
	)
	err := scan(
		&rec.ID,
		&rec.RoomID,
		&rec.PickerID,
		&rec.ResponderID,
		&status,
		&rec.AdultLevel,
		&boundariesRaw,
		&consentPicker,
		&consentResponder,
		&rec.CurrentRound,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GameSessionRecord{}, storage.ErrNotFound
		}
		return storage.GameSessionRecord{}, fmt.Errorf("scan game session: %w", err)
	}
	boundaries, err := decodeBoundaries(boundariesRaw)
	if err != nil {
		return storage.GameSessionRecord{}, err
	}
	rec.Status = play.Status(status)
	rec.Boundaries = boundaries
	rec.ConsentPicker = consentPicker != 0
	rec.ConsentResponder = consentResponder != 0
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

// ClaimResponder sets the responder on a lobby session that has none.
// The claim is conditional; a lost race or an already-claimed session yields
// ErrConflict.
func (s *Store) ClaimResponder(ctx context.Context, gameSessionID, responderID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(responderID) == "" {
		return fmt.Errorf("responder id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_game_sessions
SET responder_id = ?, updated_at = ?
WHERE id = ?
AND status = ?
AND responder_id = ''
AND picker_id != ?
`,
		responderID,
		toMillis(at),
		gameSessionID,
		string(play.StatusLobby),
		responderID,
	)
	if err != nil {
		return fmt.Errorf("claim responder: %w", err)
	}
	return conflictUnlessAffected(result, "claim responder")
}

// ActivateGameSession performs the lobby -> active transition and opens round
// one. The write is conditioned on the lobby state so two concurrent starts
// cannot both activate; the losing call observes ErrConflict.
func (s *Store) ActivateGameSession(ctx context.Context, gameSessionID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_game_sessions
SET status = ?, current_round = 1, updated_at = ?
WHERE id = ?
AND status = ?
`,
		string(play.StatusActive),
		toMillis(at),
		gameSessionID,
		string(play.StatusLobby),
	)
	if err != nil {
		return fmt.Errorf("activate game session: %w", err)
	}
	return conflictUnlessAffected(result, "activate game session")
}

// UpdateConsent writes merged boundaries, level, and consent flags in one
// update on a non-completed session.
func (s *Store) UpdateConsent(ctx context.Context, gameSessionID string, update storage.ConsentUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	boundaries, err := encodeBoundaries(update.Boundaries)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_game_sessions
SET boundaries = ?, adult_level = ?, consent_picker = ?, consent_responder = ?, updated_at = ?
WHERE id = ?
AND status != ?
`,
		boundaries,
		update.AdultLevel,
		boolToInt(update.ConsentPicker),
		boolToInt(update.ConsentResponder),
		toMillis(update.UpdatedAt),
		gameSessionID,
		string(play.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("update consent: %w", err)
	}
	return conflictUnlessAffected(result, "update consent")
}

// DowngradeLevel lowers the adult level and rewrites both consent flags.
// The condition re-checks the downshift against the stored level so a racing
// change never raises the level back up.
func (s *Store) DowngradeLevel(ctx context.Context, gameSessionID string, newLevel int, consentPicker, consentResponder bool, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_game_sessions
SET adult_level = ?, consent_picker = ?, consent_responder = ?, updated_at = ?
WHERE id = ?
AND adult_level > ?
AND status != ?
`,
		newLevel,
		boolToInt(consentPicker),
		boolToInt(consentResponder),
		toMillis(at),
		gameSessionID,
		newLevel,
		string(play.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("downgrade level: %w", err)
	}
	return conflictUnlessAffected(result, "downgrade level")
}

// AdvanceRound swaps picker/responder and increments the round by exactly one.
// Conditioning on the expected round keeps concurrent advances single-step.
func (s *Store) AdvanceRound(ctx context.Context, gameSessionID string, expectedRound int, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_game_sessions
SET picker_id = responder_id,
	responder_id = picker_id,
	current_round = current_round + 1,
	updated_at = ?
WHERE id = ?
AND status = ?
AND current_round = ?
`,
		toMillis(at),
		gameSessionID,
		string(play.StatusActive),
		expectedRound,
	)
	if err != nil {
		return fmt.Errorf("advance round: %w", err)
	}
	return conflictUnlessAffected(result, "advance round")
}

// CompleteGameSession forces a non-terminal session to completed.
func (s *Store) CompleteGameSession(ctx context.Context, gameSessionID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_game_sessions
SET status = ?, updated_at = ?
WHERE id = ?
AND status != ?
`,
		string(play.StatusCompleted),
		toMillis(at),
		gameSessionID,
		string(play.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("complete game session: %w", err)
	}
	return conflictUnlessAffected(result, "complete game session")
}

func conflictUnlessAffected(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rowsAffected == 0 {
		return storage.ErrConflict
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
