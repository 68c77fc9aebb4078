// Package errors provides structured error handling for the private-space
// service. Codes double as the wire error identifiers in API envelopes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "internal_error"

	// Authentication errors
	CodeUnauthorized Code = "unauthorized"

	// Authorization errors
	CodeNotAuthorized Code = "not_authorized"
	CodeNotPicker     Code = "not_picker"
	CodeNotResponder  Code = "not_responder"

	// Membership errors
	CodeRoomFull    Code = "room_full"
	CodePinTooShort Code = "pin_too_short"

	// Game session errors
	CodeSessionNotFound     Code = "session_not_found"
	CodeNeedResponder       Code = "need_responder"
	CodeConsentRequired     Code = "consent_required"
	CodeCanOnlyDownshift    Code = "can_only_downshift"
	CodeRoundIncomplete     Code = "round_incomplete"
	CodeCategoryUnavailable Code = "category_unavailable"

	// Validation errors
	CodeInvalidRequest Code = "invalid_request"

	// Storage errors
	CodeNotFound Code = "not_found"

	// Upstream generation errors
	CodeGenerationFailed Code = "generation_failed"
)

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotAuthorized, CodeNotPicker, CodeNotResponder:
		return http.StatusForbidden
	case CodeNotFound, CodeSessionNotFound:
		return http.StatusNotFound
	case CodeRoomFull:
		return http.StatusConflict
	case CodePinTooShort, CodeInvalidRequest, CodeNeedResponder,
		CodeConsentRequired, CodeCanOnlyDownshift, CodeRoundIncomplete,
		CodeCategoryUnavailable:
		return http.StatusBadRequest
	case CodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
