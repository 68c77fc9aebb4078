// Package token issues and verifies the signed session tokens that
// authenticate private-space members. A token is only a pointer to a
// stored session row: deleting the row revokes the token regardless of
// its embedded expiry.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidToken covers every way a token can fail to decode. Callers
// must not distinguish malformed tokens from forged ones.
var ErrInvalidToken = errors.New("invalid token")

// Payload is the signed body of a token.
type Payload struct {
	SessionID string `json:"sid"`
	ExpiresAt int64  `json:"exp"`
}

// Codec signs and verifies token payloads with HMAC-SHA256.
type Codec struct {
	secret []byte
}

// NewCodec returns a codec keyed with secret.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("new codec: empty secret")
	}
	return &Codec{secret: secret}, nil
}

// Encode serializes and signs a payload. The wire format is
// base64url(body) "." base64url(signature), both unpadded.
func (c *Codec) Encode(payload Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + base64.RawURLEncoding.EncodeToString(c.sign(encoded)), nil
}

// Decode verifies the signature and expiry, then returns the payload.
func (c *Codec) Decode(token string, now time.Time) (Payload, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return Payload{}, ErrInvalidToken
	}
	claimed, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return Payload{}, ErrInvalidToken
	}
	if !hmac.Equal(claimed, c.sign(encoded)) {
		return Payload{}, ErrInvalidToken
	}

	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, ErrInvalidToken
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Payload{}, ErrInvalidToken
	}
	if payload.SessionID == "" {
		return Payload{}, ErrInvalidToken
	}
	if !now.Before(time.UnixMilli(payload.ExpiresAt)) {
		return Payload{}, ErrInvalidToken
	}
	return payload, nil
}

func (c *Codec) sign(encoded string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return mac.Sum(nil)
}
