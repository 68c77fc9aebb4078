// Package httpapi exposes the private-space service over HTTP. Every
// response shares one envelope: {"success":true, ...} on success, or
// {"success":false,"error":"<code>"} with a matching status on failure.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	apperrors "github.com/kopcaptz/daybookai/internal/platform/errors"
)

// TokenHeader carries the session token on every authenticated request.
const TokenHeader = "X-Space-Token"

func writeSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for key, value := range fields {
		body[key] = value
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, code.HTTPStatus(), map[string]any{
		"success": false,
		"error":   code,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

// decodeBody parses the JSON request body. An empty body decodes as the
// zero value; requests that carry no fields need no payload.
func decodeBody(r *http.Request, into any) error {
	err := json.NewDecoder(r.Body).Decode(into)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperrors.Wrap(apperrors.CodeInvalidRequest, "malformed request body", err)
}
