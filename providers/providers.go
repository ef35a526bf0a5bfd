// Package providers contains the HTTP clients for the external catalog
// sources: TMDB for movies and TV, Open Library for books, and the media
// server holding the local library.
package providers

import "requestarr/models"

// Item is one catalog search result, normalized across providers. For books
// the TMDBID field carries the numeric Open Library work id.
type Item struct {
	TMDBID     int64            `json:"tmdb_id"`
	MediaType  models.MediaType `json:"media_type"`
	Title      string           `json:"title"`
	Overview   string           `json:"overview,omitempty"`
	PosterURL  string           `json:"poster_url,omitempty"`
	PosterPath string           `json:"poster_path,omitempty"`
	Year       int              `json:"year,omitempty"`
	Rating     float64          `json:"rating,omitempty"`
	Authors    []string         `json:"authors,omitempty"`
}

// Page is one page of provider results with the provider's own totals.
type Page struct {
	Results      []Item `json:"results"`
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}
