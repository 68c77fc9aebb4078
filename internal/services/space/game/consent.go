package game

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/kopcaptz/daybookai/internal/platform/errors"
	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
	"github.com/kopcaptz/daybookai/internal/services/space/storage"
)

// SetConsent merges the caller's boundary patch and marks the caller as
// consented. Merging is per field, last writer wins; the whole result
// lands in one write. A romance-only result clamps the stored level.
// Consent is never withdrawn here; lowering the level resets it instead.
func (s *Service) SetConsent(ctx context.Context, callerMemberID, roomID, gameSessionID string, patch play.BoundaryPatch) (Session, error) {
	record, err := s.participantSession(ctx, callerMemberID, roomID, gameSessionID)
	if err != nil {
		return Session{}, err
	}
	if record.Status == play.StatusCompleted {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the session has ended")
	}

	merged := play.MergeBoundaries(record.Boundaries, patch)
	update := storage.ConsentUpdate{
		Boundaries:       merged,
		AdultLevel:       play.ClampLevel(record.AdultLevel, merged),
		ConsentPicker:    record.ConsentPicker,
		ConsentResponder: record.ConsentResponder,
		UpdatedAt:        s.now(),
	}
	if callerMemberID == record.PickerID {
		update.ConsentPicker = true
	} else {
		update.ConsentResponder = true
	}

	err = s.games.UpdateConsent(ctx, gameSessionID, update)
	if errors.Is(err, storage.ErrConflict) {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the session has ended")
	}
	if err != nil {
		return Session{}, fmt.Errorf("set consent: %w", err)
	}
	return s.Get(ctx, roomID, gameSessionID)
}

// SetLevel lowers the adult level. Raising is never permitted; lowering
// is unilateral. Dropping to zero auto-consents both participants, any
// other target level forces both to re-confirm.
func (s *Service) SetLevel(ctx context.Context, callerMemberID, roomID, gameSessionID string, newLevel int) (Session, error) {
	record, err := s.participantSession(ctx, callerMemberID, roomID, gameSessionID)
	if err != nil {
		return Session{}, err
	}
	if record.Status == play.StatusCompleted {
		return Session{}, apperrors.New(apperrors.CodeInvalidRequest, "the session has ended")
	}
	if err := play.ValidateDownshift(record.AdultLevel, newLevel); err != nil {
		switch {
		case errors.Is(err, play.ErrCanOnlyDownshift):
			return Session{}, apperrors.New(apperrors.CodeCanOnlyDownshift, "adult level can only be lowered")
		default:
			return Session{}, apperrors.Wrap(apperrors.CodeInvalidRequest, "adult level is out of range", err)
		}
	}

	consentPicker, consentResponder := play.ConsentAfterDownshift(newLevel)
	err = s.games.DowngradeLevel(ctx, gameSessionID, newLevel, consentPicker, consentResponder, s.now())
	if errors.Is(err, storage.ErrConflict) {
		// A concurrent writer lowered the level at or below ours first.
		return Session{}, apperrors.New(apperrors.CodeCanOnlyDownshift, "adult level can only be lowered")
	}
	if err != nil {
		return Session{}, fmt.Errorf("set level: %w", err)
	}
	return s.Get(ctx, roomID, gameSessionID)
}

// CategoryView is a catalog entry plus its availability for a session.
type CategoryView struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	MinLevel  int    `json:"min_level"`
	Available bool   `json:"available"`
}

// Categories returns the catalog. When a game session is named, the
// available flag reflects its current adult level; otherwise only
// level-zero categories read as available.
func (s *Service) Categories(ctx context.Context, roomID, gameSessionID string) ([]CategoryView, error) {
	adultLevel := 0
	if gameSessionID != "" {
		record, err := s.roomSession(ctx, roomID, gameSessionID)
		if err != nil {
			return nil, err
		}
		adultLevel = record.AdultLevel
	}

	catalog := play.Categories()
	out := make([]CategoryView, 0, len(catalog))
	for _, category := range catalog {
		out = append(out, CategoryView{
			ID:        category.ID,
			Label:     category.Label,
			MinLevel:  category.MinLevel,
			Available: play.CategoryAvailable(category, adultLevel),
		})
	}
	return out, nil
}
