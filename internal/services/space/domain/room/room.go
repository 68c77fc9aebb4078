// Package room models shared private-space rooms and their members.
//
// A room is an ephemeral space identified by a PIN; the PIN itself is never
// stored, only a keyed digest that supports lookup without exposing the PIN
// to offline guessing.
package room

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	// MinPINLength is the minimum accepted PIN length.
	MinPINLength = 4
	// MaxPINLength bounds PINs to keep digests and inputs sane.
	MaxPINLength = 64
	// DefaultMemberLimit is the member capacity for new rooms.
	DefaultMemberLimit = 5
	// MaxDisplayNameLength bounds member display names.
	MaxDisplayNameLength = 40
)

var (
	// ErrPINTooShort indicates the PIN is below the minimum length.
	ErrPINTooShort = errors.New("pin is too short")
	// ErrPINTooLong indicates the PIN exceeds the maximum length.
	ErrPINTooLong = errors.New("pin is too long")
	// ErrEmptyDeviceID indicates a device id is required.
	ErrEmptyDeviceID = errors.New("device id is required")
	// ErrEmptyDisplayName indicates a display name is required.
	ErrEmptyDisplayName = errors.New("display name is required")
	// ErrDisplayNameTooLong indicates the display name exceeds the limit.
	ErrDisplayNameTooLong = errors.New("display name is too long")
)

// JoinInput captures user-provided fields for joining a room.
type JoinInput struct {
	PIN         string
	DeviceID    string
	DisplayName string
}

// NormalizeJoinInput validates and canonicalizes join input.
func NormalizeJoinInput(input JoinInput) (JoinInput, error) {
	input.PIN = strings.TrimSpace(input.PIN)
	if len(input.PIN) < MinPINLength {
		return JoinInput{}, ErrPINTooShort
	}
	if len(input.PIN) > MaxPINLength {
		return JoinInput{}, ErrPINTooLong
	}

	input.DeviceID = strings.TrimSpace(input.DeviceID)
	if input.DeviceID == "" {
		return JoinInput{}, ErrEmptyDeviceID
	}

	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		return JoinInput{}, ErrEmptyDisplayName
	}
	if len(input.DisplayName) > MaxDisplayNameLength {
		return JoinInput{}, ErrDisplayNameTooLong
	}

	return input, nil
}

// PINDigest derives the stored lookup digest for a PIN.
// The digest is keyed so database contents alone cannot be brute-forced
// against the short PIN space.
func PINDigest(secret []byte, pin string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(pin))
	return hex.EncodeToString(mac.Sum(nil))
}
