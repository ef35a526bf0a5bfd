package models

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestDenied    RequestStatus = "denied"
	RequestFulfilled RequestStatus = "fulfilled"
)

type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
	MediaBook  MediaType = "book"
)

// ValidMediaType reports whether t is a known media type.
func ValidMediaType(t MediaType) bool {
	return t == MediaMovie || t == MediaTV || t == MediaBook
}

type Request struct {
	ID         int           `json:"id"`
	UserID     string        `json:"user_id"`
	Username   string        `json:"username,omitempty"` // For display
	TMDBID     int64         `json:"tmdb_id"`
	MediaType  MediaType     `json:"media_type"`
	Title      string        `json:"title"`
	PosterPath string        `json:"poster_path,omitempty"`
	Status     RequestStatus `json:"status"`
	AdminNote  string        `json:"admin_note,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Active reports whether the request counts toward duplicate prevention.
// Only pending and approved requests block a new request for the same title.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestApproved
}

// requestTransitions is the adjacency map of the request state machine.
// Terminal states loop back so a denied or fulfilled request can be reopened.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:   {RequestApproved, RequestDenied},
	RequestApproved:  {RequestFulfilled, RequestPending, RequestDenied},
	RequestFulfilled: {RequestApproved},
	RequestDenied:    {RequestPending},
}

// AllowedRequestTargets returns the statuses reachable from current.
// The returned slice is shared and must not be mutated.
func AllowedRequestTargets(current RequestStatus) []RequestStatus {
	return requestTransitions[current]
}

// ValidRequestTransition reports whether moving from current to target is
// allowed by the request state machine.
func ValidRequestTransition(current, target RequestStatus) bool {
	for _, s := range requestTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// ValidRequestStatus reports whether s names a known request status.
func ValidRequestStatus(s RequestStatus) bool {
	_, ok := requestTransitions[s]
	return ok
}

type RequestStats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Denied      int `json:"denied"`
	Fulfilled   int `json:"fulfilled"`
	UniqueUsers int `json:"unique_users"`
}
