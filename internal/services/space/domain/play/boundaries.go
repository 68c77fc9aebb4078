package play

// Boundaries is the typed exclusion record narrowing generated content.
// Version counts applied merges so concurrent writers stay diagnosable.
type Boundaries struct {
	Version      int  `json:"version"`
	RomanceOnly  bool `json:"romance_only"`
	NoExPartners bool `json:"no_ex_partners"`
	NoFamily     bool `json:"no_family"`
	NoWorkplace  bool `json:"no_workplace"`
	NoRoleplay   bool `json:"no_roleplay"`
}

// BoundaryPatch carries a participant's submitted boundary flags.
// Nil fields were not submitted and leave the stored value untouched.
type BoundaryPatch struct {
	RomanceOnly  *bool `json:"romance_only"`
	NoExPartners *bool `json:"no_ex_partners"`
	NoFamily     *bool `json:"no_family"`
	NoWorkplace  *bool `json:"no_workplace"`
	NoRoleplay   *bool `json:"no_roleplay"`
}

// MergeBoundaries applies a patch field-by-field, last writer wins per field,
// and bumps the version counter.
func MergeBoundaries(current Boundaries, patch BoundaryPatch) Boundaries {
	merged := current
	if patch.RomanceOnly != nil {
		merged.RomanceOnly = *patch.RomanceOnly
	}
	if patch.NoExPartners != nil {
		merged.NoExPartners = *patch.NoExPartners
	}
	if patch.NoFamily != nil {
		merged.NoFamily = *patch.NoFamily
	}
	if patch.NoWorkplace != nil {
		merged.NoWorkplace = *patch.NoWorkplace
	}
	if patch.NoRoleplay != nil {
		merged.NoRoleplay = *patch.NoRoleplay
	}
	merged.Version = current.Version + 1
	return merged
}

// ClampLevel applies boundary-driven level narrowing: romance-only sessions
// never exceed RomanceOnlyMaxLevel.
func ClampLevel(level int, boundaries Boundaries) int {
	if boundaries.RomanceOnly && level > RomanceOnlyMaxLevel {
		return RomanceOnlyMaxLevel
	}
	return level
}

// Exclusions lists the content exclusions this record implies, in the
// vocabulary the generation boundary understands.
func (b Boundaries) Exclusions() []string {
	var out []string
	if b.NoExPartners {
		out = append(out, "past relationships or ex-partners")
	}
	if b.NoFamily {
		out = append(out, "family members")
	}
	if b.NoWorkplace {
		out = append(out, "workplace or colleagues")
	}
	if b.NoRoleplay {
		out = append(out, "roleplay or pretend scenarios")
	}
	return out
}
