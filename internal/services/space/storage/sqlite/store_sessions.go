package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

// PutSession persists a token-backing session record.
func (s *Store) PutSession(ctx context.Context, record storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.MemberID) == "" {
		return fmt.Errorf("member id is required")
	}
	if strings.TrimSpace(record.RoomID) == "" {
		return fmt.Errorf("room id is required")
	}
	if record.ExpiresAt.IsZero() {
		return fmt.Errorf("expiry is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO space_sessions (id, member_id, room_id, channel_key, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.MemberID,
		record.RoomID,
		record.ChannelKey,
		toMillis(record.CreatedAt),
		toMillis(record.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession fetches a session record by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, member_id, room_id, channel_key, created_at, expires_at
FROM space_sessions
WHERE id = ?
`, sessionID)

	var (
		rec       storage.SessionRecord
		createdAt int64
		expiresAt int64
	)
	if err := row.Scan(&rec.ID, &rec.MemberID, &rec.RoomID, &rec.ChannelKey, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SessionRecord{}, storage.ErrNotFound
		}
		return storage.SessionRecord{}, fmt.Errorf("scan session: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.ExpiresAt = fromMillis(expiresAt)
	return rec, nil
}

// DeleteSession removes one session row. Deletion is the revocation
// mechanism; every token referencing the row dies with it.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM space_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteMemberSessions removes every session a member holds.
func (s *Store) DeleteMemberSessions(ctx context.Context, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM space_sessions WHERE member_id = ?`, memberID); err != nil {
		return fmt.Errorf("delete member sessions: %w", err)
	}
	return nil
}
