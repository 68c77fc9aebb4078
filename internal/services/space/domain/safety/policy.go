// Package safety defines the structured content-safety policy handed to the
// generation boundary. Keeping the policy as data, not prompt prose, lets the
// bans be tested without invoking a model.
package safety

// Theme names a content theme the policy excludes.
type Theme string

const (
	ThemeNonConsent     Theme = "non_consensual_acts"
	ThemeMinors         Theme = "minors_or_age_ambiguity"
	ThemeViolence       Theme = "violence_or_coercion"
	ThemeDegradation    Theme = "degradation_or_humiliation"
	ThemeSelfHarm       Theme = "self_harm"
	ThemeIncapacitation Theme = "intoxication_or_incapacitation"
)

// unconditionalBans apply at every adult level above zero, regardless of any
// participant preference.
var unconditionalBans = []Theme{
	ThemeNonConsent,
	ThemeMinors,
	ThemeViolence,
	ThemeDegradation,
	ThemeSelfHarm,
	ThemeIncapacitation,
}

// Policy is the level range plus excluded themes for one generation call.
type Policy struct {
	MaxLevel int
	Excluded []Theme
}

// ForLevel builds the policy for a session's adult level.
func ForLevel(level int) Policy {
	excluded := make([]Theme, len(unconditionalBans))
	copy(excluded, unconditionalBans)
	return Policy{MaxLevel: level, Excluded: excluded}
}

// Allows reports whether a theme survives the policy.
func (p Policy) Allows(theme Theme) bool {
	for _, excluded := range p.Excluded {
		if excluded == theme {
			return false
		}
	}
	return true
}

// Descriptions renders excluded themes as generation-facing phrases.
func (p Policy) Descriptions() []string {
	out := make([]string, 0, len(p.Excluded))
	for _, theme := range p.Excluded {
		if text, ok := themeDescriptions[theme]; ok {
			out = append(out, text)
		}
	}
	return out
}

var themeDescriptions = map[Theme]string{
	ThemeNonConsent:     "non-consensual acts of any kind",
	ThemeMinors:         "minors or any age ambiguity",
	ThemeViolence:       "violence, threats, or coercion",
	ThemeDegradation:    "degrading or humiliating treatment",
	ThemeSelfHarm:       "self-harm",
	ThemeIncapacitation: "intoxication or incapacitation",
}
