// Package generation is the boundary to the external content model. The
// contract is narrow: generate candidate situations for a round, or a
// reflection over a completed round. Model output is strictly validated
// and any deviation is a generation failure, never a best-effort guess.
package generation

import (
	"context"
	"errors"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
)

// ErrInvalidResponse marks model output that failed validation.
var ErrInvalidResponse = errors.New("invalid generation response")

// ErrDisabled marks a generator with no upstream configured.
var ErrDisabled = errors.New("generation is not configured")

const (
	// MaxSituations bounds how many candidates one call may return.
	MaxSituations = 5
	// MinChoiceOptions and MaxChoiceOptions bound choice-card options.
	MinChoiceOptions = 2
	MaxChoiceOptions = 4
	// MaxValuesQuestions bounds open questions on a values card.
	MaxValuesQuestions = 3
)

// Situation is one generated candidate for a round.
type Situation struct {
	Text            string        `json:"text"`
	CardType        play.CardType `json:"card_type"`
	Options         []string      `json:"options,omitempty"`
	ValuesQuestions []string      `json:"values_questions,omitempty"`
}

// SituationRequest asks for round candidates.
type SituationRequest struct {
	Category    play.Category
	AdultLevel  int
	Boundaries  play.Boundaries
	RoundNumber int
}

// ReflectionRequest asks for a short reflection over both answers.
type ReflectionRequest struct {
	SituationText   string
	PickerAnswer    string
	ResponderAnswer string
}

// Generator produces situations and reflections.
type Generator interface {
	GenerateSituations(ctx context.Context, req SituationRequest) ([]Situation, error)
	GenerateReflection(ctx context.Context, req ReflectionRequest) (string, error)
}

// Disabled is a Generator that always fails with ErrDisabled. It stands
// in when no API key is configured so the rest of the service still runs.
type Disabled struct{}

// GenerateSituations always fails.
func (Disabled) GenerateSituations(context.Context, SituationRequest) ([]Situation, error) {
	return nil, ErrDisabled
}

// GenerateReflection always fails.
func (Disabled) GenerateReflection(context.Context, ReflectionRequest) (string, error) {
	return "", ErrDisabled
}
