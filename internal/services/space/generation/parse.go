package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
)

type situationsEnvelope struct {
	Situations []Situation `json:"situations"`
}

// parseSituations validates raw model output into situations. Anything
// out of contract fails the whole call; partial results are never used.
func parseSituations(raw string) ([]Situation, error) {
	raw = stripFences(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidResponse)
	}

	var envelope situationsEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(envelope.Situations) == 0 || len(envelope.Situations) > MaxSituations {
		return nil, fmt.Errorf("%w: got %d situations", ErrInvalidResponse, len(envelope.Situations))
	}

	for i, situation := range envelope.Situations {
		if err := validateSituation(situation); err != nil {
			return nil, fmt.Errorf("situation %d: %w", i, err)
		}
	}
	return envelope.Situations, nil
}

func validateSituation(s Situation) error {
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidResponse)
	}
	if !play.IsValidCardType(s.CardType) {
		return fmt.Errorf("%w: unknown card type %q", ErrInvalidResponse, s.CardType)
	}
	switch s.CardType {
	case play.CardTypeChoice:
		if len(s.Options) < MinChoiceOptions || len(s.Options) > MaxChoiceOptions {
			return fmt.Errorf("%w: choice card with %d options", ErrInvalidResponse, len(s.Options))
		}
		for _, option := range s.Options {
			if strings.TrimSpace(option) == "" {
				return fmt.Errorf("%w: empty option", ErrInvalidResponse)
			}
		}
		if len(s.ValuesQuestions) > 0 {
			return fmt.Errorf("%w: choice card with values questions", ErrInvalidResponse)
		}
	case play.CardTypeValues:
		if len(s.ValuesQuestions) == 0 || len(s.ValuesQuestions) > MaxValuesQuestions {
			return fmt.Errorf("%w: values card with %d questions", ErrInvalidResponse, len(s.ValuesQuestions))
		}
		for _, question := range s.ValuesQuestions {
			if strings.TrimSpace(question) == "" {
				return fmt.Errorf("%w: empty question", ErrInvalidResponse)
			}
		}
		if len(s.Options) > 0 {
			return fmt.Errorf("%w: values card with options", ErrInvalidResponse)
		}
	}
	return nil
}

// parseReflection validates raw model output into reflection text.
func parseReflection(raw string) (string, error) {
	raw = strings.TrimSpace(stripFences(raw))
	if raw == "" {
		return "", fmt.Errorf("%w: empty reflection", ErrInvalidResponse)
	}
	return raw, nil
}

// stripFences removes a wrapping markdown code fence if present. Models
// add them despite instructions not to.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if newline := strings.IndexByte(raw, '\n'); newline >= 0 {
		// Drop a language tag such as ```json.
		if first := strings.TrimSpace(raw[:newline]); first == "json" || first == "" {
			raw = raw[newline+1:]
		}
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
