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

// PutRoom inserts a room. The PIN digest is unique; a concurrent insert for
// the same digest yields ErrConflict so the caller can re-resolve.
func (s *Store) PutRoom(ctx context.Context, record storage.RoomRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("room id is required")
	}
	if strings.TrimSpace(record.PINDigest) == "" {
		return fmt.Errorf("pin digest is required")
	}
	if record.MemberLimit <= 0 {
		return fmt.Errorf("member limit must be positive")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO space_rooms (id, pin_digest, owner_member_id, member_limit, created_at)
VALUES (?, ?, ?, ?, ?)
`,
		record.ID,
		record.PINDigest,
		record.OwnerMemberID,
		record.MemberLimit,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put room: %w", err)
	}
	return nil
}

// GetRoom fetches a room by ID.
func (s *Store) GetRoom(ctx context.Context, roomID string) (storage.RoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RoomRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RoomRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, pin_digest, owner_member_id, member_limit, created_at
FROM space_rooms
WHERE id = ?
`, roomID)
	return scanRoomRow(row)
}

// GetRoomByPINDigest fetches a room by its PIN digest.
func (s *Store) GetRoomByPINDigest(ctx context.Context, digest string) (storage.RoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RoomRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RoomRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, pin_digest, owner_member_id, member_limit, created_at
FROM space_rooms
WHERE pin_digest = ?
`, digest)
	return scanRoomRow(row)
}

func scanRoomRow(row *sql.Row) (storage.RoomRecord, error) {
	var (
		rec       storage.RoomRecord
		createdAt int64
	)
	if err := row.Scan(&rec.ID, &rec.PINDigest, &rec.OwnerMemberID, &rec.MemberLimit, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RoomRecord{}, storage.ErrNotFound
		}
		return storage.RoomRecord{}, fmt.Errorf("scan room: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// CreateMember inserts a member only while the room is under capacity.
// The guard is the insert itself, not a read-then-write, so two concurrent
// joins cannot both slip past the limit.
func (s *Store) CreateMember(ctx context.Context, record storage.MemberRecord, memberLimit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("member id is required")
	}
	if strings.TrimSpace(record.RoomID) == "" {
		return fmt.Errorf("room id is required")
	}
	if memberLimit <= 0 {
		return fmt.Errorf("member limit must be positive")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO space_members (id, room_id, device_id, display_name, joined_at, last_seen_at)
SELECT ?, ?, ?, ?, ?, ?
WHERE (SELECT COUNT(*) FROM space_members WHERE room_id = ?) < ?
`,
		record.ID,
		record.RoomID,
		record.DeviceID,
		record.DisplayName,
		toMillis(record.JoinedAt),
		toMillis(record.LastSeenAt),
		record.RoomID,
		memberLimit,
	)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create member rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrConflict
	}
	return nil
}

// GetMember fetches a member by ID.
func (s *Store) GetMember(ctx context.Context, memberID string) (storage.MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MemberRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MemberRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, room_id, device_id, display_name, joined_at, last_seen_at
FROM space_members
WHERE id = ?
`, memberID)

	var (
		rec        storage.MemberRecord
		joinedAt   int64
		lastSeenAt int64
	)
	if err := row.Scan(&rec.ID, &rec.RoomID, &rec.DeviceID, &rec.DisplayName, &joinedAt, &lastSeenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MemberRecord{}, storage.ErrNotFound
		}
		return storage.MemberRecord{}, fmt.Errorf("scan member: %w", err)
	}
	rec.JoinedAt = fromMillis(joinedAt)
	rec.LastSeenAt = fromMillis(lastSeenAt)
	return rec, nil
}

// ListMembers returns a room's members ordered by join time.
func (s *Store) ListMembers(ctx context.Context, roomID string) ([]storage.MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, room_id, device_id, display_name, joined_at, last_seen_at
FROM space_members
WHERE room_id = ?
ORDER BY joined_at ASC, id ASC
`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []storage.MemberRecord
	for rows.Next() {
		var (
			rec        storage.MemberRecord
			joinedAt   int64
			lastSeenAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.DeviceID, &rec.DisplayName, &joinedAt, &lastSeenAt); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		rec.JoinedAt = fromMillis(joinedAt)
		rec.LastSeenAt = fromMillis(lastSeenAt)
		members = append(members, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// DeleteMember removes a member row.
func (s *Store) DeleteMember(ctx context.Context, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM space_members WHERE id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// TouchMember updates a member's presence timestamp.
func (s *Store) TouchMember(ctx context.Context, memberID string, seenAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE space_members SET last_seen_at = ? WHERE id = ?
`, toMillis(seenAt), memberID)
	if err != nil {
		return fmt.Errorf("touch member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch member rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint") || strings.Contains(value, "constraint failed")
}
