package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"requestarr/apperr"
)

// PaginatedResponse is the envelope for every list endpoint.
type PaginatedResponse struct {
	Items      any `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func NewPaginatedResponse(items any, total, page, limit int) PaginatedResponse {
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return PaginatedResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// WriteError translates an error into the JSON error envelope. Taxonomy
// errors keep their code and status; anything else becomes internal_error
// with the detail withheld from the client.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, appErr)
		return
	}
	slog.Error("Unhandled error", "error", err)
	WriteJSON(w, apperr.ErrInternal.Status, apperr.ErrInternal)
}

func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.ErrBadRequest.WithDetail("invalid JSON body")
	}
	return nil
}

// ParsePagination reads page and limit query parameters with defaults and
// an upper bound.
func ParsePagination(r *http.Request, maxLimit int) (page, limit int) {
	page = 1
	limit = 20

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v >= 1 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
