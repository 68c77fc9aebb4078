package room

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeJoinInput(t *testing.T) {
	input, err := NormalizeJoinInput(JoinInput{
		PIN:         "  1234 ",
		DeviceID:    " device-a ",
		DisplayName: " Alice ",
	})
	if err != nil {
		t.Fatalf("normalize join input: %v", err)
	}
	if input.PIN != "1234" {
		t.Fatalf("expected trimmed pin, got %q", input.PIN)
	}
	if input.DeviceID != "device-a" {
		t.Fatalf("expected trimmed device id, got %q", input.DeviceID)
	}
	if input.DisplayName != "Alice" {
		t.Fatalf("expected trimmed display name, got %q", input.DisplayName)
	}
}

func TestNormalizeJoinInputShortPIN(t *testing.T) {
	_, err := NormalizeJoinInput(JoinInput{PIN: "123", DeviceID: "d", DisplayName: "A"})
	if !errors.Is(err, ErrPINTooShort) {
		t.Fatalf("expected ErrPINTooShort, got %v", err)
	}
	// Whitespace padding must not satisfy the minimum.
	_, err = NormalizeJoinInput(JoinInput{PIN: "  12  ", DeviceID: "d", DisplayName: "A"})
	if !errors.Is(err, ErrPINTooShort) {
		t.Fatalf("expected ErrPINTooShort for padded pin, got %v", err)
	}
}

func TestNormalizeJoinInputBounds(t *testing.T) {
	_, err := NormalizeJoinInput(JoinInput{PIN: strings.Repeat("9", MaxPINLength+1), DeviceID: "d", DisplayName: "A"})
	if !errors.Is(err, ErrPINTooLong) {
		t.Fatalf("expected ErrPINTooLong, got %v", err)
	}
	_, err = NormalizeJoinInput(JoinInput{PIN: "1234", DeviceID: "", DisplayName: "A"})
	if !errors.Is(err, ErrEmptyDeviceID) {
		t.Fatalf("expected ErrEmptyDeviceID, got %v", err)
	}
	_, err = NormalizeJoinInput(JoinInput{PIN: "1234", DeviceID: "d", DisplayName: "   "})
	if !errors.Is(err, ErrEmptyDisplayName) {
		t.Fatalf("expected ErrEmptyDisplayName, got %v", err)
	}
	_, err = NormalizeJoinInput(JoinInput{PIN: "1234", DeviceID: "d", DisplayName: strings.Repeat("x", MaxDisplayNameLength+1)})
	if !errors.Is(err, ErrDisplayNameTooLong) {
		t.Fatalf("expected ErrDisplayNameTooLong, got %v", err)
	}
}

func TestPINDigestDeterministic(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	first := PINDigest(secret, "1234")
	second := PINDigest(secret, "1234")
	if first != second {
		t.Fatal("expected deterministic digest for equal input")
	}
	if len(first) != 64 {
		t.Fatalf("expected hex sha256 digest, got %d chars", len(first))
	}
	if PINDigest(secret, "1235") == first {
		t.Fatal("expected different digest for different pin")
	}
	if PINDigest([]byte("another-secret-another-secret-00"), "1234") == first {
		t.Fatal("expected different digest for different secret")
	}
}
