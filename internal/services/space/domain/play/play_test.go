package play

import (
	"errors"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusLobby, StatusActive},
		{StatusLobby, StatusCompleted},
		{StatusActive, StatusCompleted},
	}
	for _, tr := range allowed {
		if !IsStatusTransitionAllowed(tr.from, tr.to) {
			t.Fatalf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusActive, StatusLobby},
		{StatusCompleted, StatusActive},
		{StatusCompleted, StatusLobby},
		{StatusCompleted, StatusCompleted},
		{StatusLobby, StatusLobby},
		{StatusUnspecified, StatusActive},
	}
	for _, tr := range denied {
		if IsStatusTransitionAllowed(tr.from, tr.to) {
			t.Fatalf("expected %s -> %s to be denied", tr.from, tr.to)
		}
	}
}

func TestValidateAdultLevel(t *testing.T) {
	for level := MinAdultLevel; level <= MaxAdultLevel; level++ {
		if err := ValidateAdultLevel(level); err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
	}
	if err := ValidateAdultLevel(-1); !errors.Is(err, ErrLevelOutOfRange) {
		t.Fatalf("expected ErrLevelOutOfRange, got %v", err)
	}
	if err := ValidateAdultLevel(4); !errors.Is(err, ErrLevelOutOfRange) {
		t.Fatalf("expected ErrLevelOutOfRange, got %v", err)
	}
}

func TestValidateDownshift(t *testing.T) {
	if err := ValidateDownshift(2, 1); err != nil {
		t.Fatalf("downshift 2 -> 1: %v", err)
	}
	if err := ValidateDownshift(1, 0); err != nil {
		t.Fatalf("downshift 1 -> 0: %v", err)
	}
	if err := ValidateDownshift(1, 1); !errors.Is(err, ErrCanOnlyDownshift) {
		t.Fatalf("expected ErrCanOnlyDownshift for equal level, got %v", err)
	}
	if err := ValidateDownshift(1, 3); !errors.Is(err, ErrCanOnlyDownshift) {
		t.Fatalf("expected ErrCanOnlyDownshift for raise, got %v", err)
	}
	if err := ValidateDownshift(2, -1); !errors.Is(err, ErrLevelOutOfRange) {
		t.Fatalf("expected ErrLevelOutOfRange, got %v", err)
	}
}

func TestConsentAfterDownshift(t *testing.T) {
	picker, responder := ConsentAfterDownshift(0)
	if !picker || !responder {
		t.Fatal("expected auto-consent at level zero")
	}
	picker, responder = ConsentAfterDownshift(1)
	if picker || responder {
		t.Fatal("expected consent reset at nonzero level")
	}
}

func TestStartAllowed(t *testing.T) {
	if err := StartAllowed(0, false, false); err != nil {
		t.Fatalf("level zero requires no consent: %v", err)
	}
	combos := []struct{ picker, responder bool }{
		{false, false},
		{true, false},
		{false, true},
	}
	for _, combo := range combos {
		if err := StartAllowed(2, combo.picker, combo.responder); !errors.Is(err, ErrConsentRequired) {
			t.Fatalf("picker=%v responder=%v: expected ErrConsentRequired, got %v", combo.picker, combo.responder, err)
		}
	}
	if err := StartAllowed(2, true, true); err != nil {
		t.Fatalf("mutual consent should pass: %v", err)
	}
}

func boolPtr(v bool) *bool { return &v }

func TestMergeBoundariesFieldByField(t *testing.T) {
	current := Boundaries{Version: 3, NoFamily: true}

	merged := MergeBoundaries(current, BoundaryPatch{
		RomanceOnly: boolPtr(true),
		NoFamily:    boolPtr(false),
	})
	if !merged.RomanceOnly {
		t.Fatal("expected romance_only set")
	}
	if merged.NoFamily {
		t.Fatal("expected no_family overridden to false")
	}
	if merged.Version != 4 {
		t.Fatalf("expected version bump to 4, got %d", merged.Version)
	}

	// Unsubmitted fields are untouched.
	merged = MergeBoundaries(merged, BoundaryPatch{NoWorkplace: boolPtr(true)})
	if !merged.RomanceOnly {
		t.Fatal("expected romance_only preserved")
	}
	if !merged.NoWorkplace {
		t.Fatal("expected no_workplace set")
	}
	if merged.Version != 5 {
		t.Fatalf("expected version 5, got %d", merged.Version)
	}
}

func TestClampLevel(t *testing.T) {
	if got := ClampLevel(3, Boundaries{RomanceOnly: true}); got != RomanceOnlyMaxLevel {
		t.Fatalf("expected clamp to %d, got %d", RomanceOnlyMaxLevel, got)
	}
	if got := ClampLevel(1, Boundaries{RomanceOnly: true}); got != 1 {
		t.Fatalf("expected level 1 untouched, got %d", got)
	}
	if got := ClampLevel(3, Boundaries{}); got != 3 {
		t.Fatalf("expected level 3 untouched without romance_only, got %d", got)
	}
}

func TestBoundariesExclusions(t *testing.T) {
	b := Boundaries{NoExPartners: true, NoWorkplace: true}
	exclusions := b.Exclusions()
	if len(exclusions) != 2 {
		t.Fatalf("expected 2 exclusions, got %d", len(exclusions))
	}
	if len(Boundaries{}.Exclusions()) != 0 {
		t.Fatal("expected no exclusions for empty record")
	}
}

func TestCategoryCatalog(t *testing.T) {
	all := Categories()
	if len(all) == 0 {
		t.Fatal("expected non-empty catalog")
	}
	seen := make(map[string]bool)
	for _, c := range all {
		if seen[c.ID] {
			t.Fatalf("duplicate category id %s", c.ID)
		}
		seen[c.ID] = true
		if c.MinLevel < MinAdultLevel || c.MinLevel > MaxAdultLevel {
			t.Fatalf("category %s min level out of range: %d", c.ID, c.MinLevel)
		}
	}

	cat, ok := CategoryByID("desire")
	if !ok {
		t.Fatal("expected desire category")
	}
	if CategoryAvailable(cat, cat.MinLevel-1) {
		t.Fatal("expected category locked below its min level")
	}
	if !CategoryAvailable(cat, cat.MinLevel) {
		t.Fatal("expected category available at its min level")
	}
	if _, ok := CategoryByID("unknown"); ok {
		t.Fatal("expected unknown category miss")
	}
}

func TestIsValidCardType(t *testing.T) {
	if !IsValidCardType(CardTypeChoice) || !IsValidCardType(CardTypeValues) {
		t.Fatal("expected known card types to validate")
	}
	if IsValidCardType("tarot") {
		t.Fatal("expected unknown card type to fail")
	}
}
