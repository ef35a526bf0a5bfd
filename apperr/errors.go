// Package apperr defines the stable error taxonomy shared by services and
// handlers. Every rejected command surfaces one of these errors with a
// machine-readable code; handlers translate them to JSON responses.
package apperr

import "net/http"

// Error is an application error with a stable code and an HTTP status.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail returns a copy of the error carrying specific detail text.
func (e *Error) WithDetail(detail string) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Detail:  detail,
		Status:  e.Status,
	}
}

// Is matches errors by code so wrapped copies created via WithDetail still
// compare equal to their sentinel with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrUnauthorized           = &Error{Code: "unauthorized", Message: "Authentication required", Status: http.StatusUnauthorized}
	ErrForbidden              = &Error{Code: "forbidden", Message: "Forbidden", Status: http.StatusForbidden}
	ErrNotFound               = &Error{Code: "not_found", Message: "Not found", Status: http.StatusNotFound}
	ErrBadRequest             = &Error{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrInvalidTransition      = &Error{Code: "invalid_transition", Message: "Invalid status transition", Status: http.StatusBadRequest}
	ErrDuplicateActiveRequest = &Error{Code: "duplicate_active_request", Message: "An active request for this title already exists", Status: http.StatusConflict}
	ErrAlreadyInLibrary       = &Error{Code: "already_in_library", Message: "Title is already in the library", Status: http.StatusConflict}
	ErrQueryTooShort          = &Error{Code: "query_too_short", Message: "Search query must be at least 2 characters", Status: http.StatusBadRequest}
	ErrTunnelAlreadyActive    = &Error{Code: "tunnel_already_active", Message: "Tunnel is already running", Status: http.StatusConflict}
	ErrTunnelNotActive        = &Error{Code: "tunnel_not_active", Message: "Tunnel is not running", Status: http.StatusConflict}
	ErrTunnelConfigMissing    = &Error{Code: "tunnel_config_missing", Message: "No tunnel credential configured", Status: http.StatusBadRequest}
	ErrConflict               = &Error{Code: "conflict", Message: "Concurrent modification detected", Status: http.StatusConflict}
	ErrUpstreamUnavailable    = &Error{Code: "upstream_unavailable", Message: "Upstream provider unavailable", Status: http.StatusBadGateway}
	ErrInternal               = &Error{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
)
