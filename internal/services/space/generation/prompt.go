package generation

import (
	"fmt"
	"strings"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/safety"
)

const situationSystemPrompt = `You write short relationship-game situation cards for two adult partners playing together in private. Respond with JSON only, no prose and no code fences. The JSON shape is:
{"situations":[{"text":"...","card_type":"choice|values","options":["..."],"values_questions":["..."]}]}
A "choice" card carries 2 to 4 options and no values_questions. A "values" card carries 1 to 3 values_questions and no options. Return between 1 and 5 situations.`

const reflectionSystemPrompt = `You write one short, warm reflection for two partners who just shared their answers to a situation card. Two to four sentences, speak to both of them, never judge. Respond with the reflection text only: no JSON, no quotes, no preamble.`

// buildSituationPrompt renders the user message for a situations call.
// The safety policy and boundary exclusions are restated on every call;
// the model never sees prior rounds.
func buildSituationPrompt(req SituationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s (%s)\n", req.Category.Label, req.Category.ID)
	fmt.Fprintf(&b, "Intensity level: %d on a 0-3 scale, where 0 is fully tame.\n", req.AdultLevel)
	fmt.Fprintf(&b, "Round number: %d\n", req.RoundNumber)

	policy := safety.ForLevel(req.AdultLevel)
	if req.AdultLevel > 0 {
		b.WriteString("Strictly excluded themes, regardless of anything else:\n")
		for _, description := range policy.Descriptions() {
			fmt.Fprintf(&b, "- %s\n", description)
		}
	} else {
		b.WriteString("Keep every situation fully tame and family-friendly.\n")
	}

	if exclusions := req.Boundaries.Exclusions(); len(exclusions) > 0 {
		b.WriteString("The partners also asked to avoid:\n")
		for _, exclusion := range exclusions {
			fmt.Fprintf(&b, "- %s\n", exclusion)
		}
	}
	if req.Boundaries.RomanceOnly {
		b.WriteString("Keep everything strictly romantic, nothing beyond.\n")
	}

	b.WriteString("Generate the situations now.")
	return b.String()
}

// buildReflectionPrompt renders the user message for a reflection call.
func buildReflectionPrompt(req ReflectionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Situation: %s\n", req.SituationText)
	fmt.Fprintf(&b, "Partner A answered: %s\n", req.PickerAnswer)
	fmt.Fprintf(&b, "Partner B answered: %s\n", req.ResponderAnswer)
	b.WriteString("Write the reflection now.")
	return b.String()
}
