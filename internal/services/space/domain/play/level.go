package play

import "errors"

const (
	// MinAdultLevel is the tame floor of the content scale.
	MinAdultLevel = 0
	// MaxAdultLevel is the most explicit permitted content level.
	MaxAdultLevel = 3
	// RomanceOnlyMaxLevel caps sessions whose boundaries are romance-only.
	RomanceOnlyMaxLevel = 1
)

var (
	// ErrLevelOutOfRange indicates an adult level outside [0, 3].
	ErrLevelOutOfRange = errors.New("adult level is out of range")
	// ErrCanOnlyDownshift indicates a level change that is not a decrease.
	ErrCanOnlyDownshift = errors.New("adult level can only be lowered")
	// ErrConsentRequired indicates both participants must consent first.
	ErrConsentRequired = errors.New("mutual consent is required")
)

// ValidateAdultLevel checks an adult level against the permitted range.
func ValidateAdultLevel(level int) error {
	if level < MinAdultLevel || level > MaxAdultLevel {
		return ErrLevelOutOfRange
	}
	return nil
}

// ValidateDownshift checks the safety-first level rule: anyone may lower the
// level unilaterally, no one may raise it.
func ValidateDownshift(current, next int) error {
	if err := ValidateAdultLevel(next); err != nil {
		return err
	}
	if next >= current {
		return ErrCanOnlyDownshift
	}
	return nil
}

// ConsentAfterDownshift returns the consent flags after a successful
// downshift. Level zero carries no residual risk and auto-consents both
// participants; any nonzero level forces re-confirmation.
func ConsentAfterDownshift(next int) (picker, responder bool) {
	if next == 0 {
		return true, true
	}
	return false, false
}

// StartAllowed checks the consent gate for activating a session.
func StartAllowed(adultLevel int, consentPicker, consentResponder bool) error {
	if adultLevel == 0 {
		return nil
	}
	if consentPicker && consentResponder {
		return nil
	}
	return ErrConsentRequired
}
