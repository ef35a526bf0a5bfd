package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"requestarr/apperr"
	"requestarr/metrics"
	"requestarr/models"
	"requestarr/providers"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const (
	minQueryLength  = 2
	providerTimeout = 10 * time.Second
)

// MovieTVProvider is the movie/TV catalog source (TMDB in production).
type MovieTVProvider interface {
	Search(ctx context.Context, query string, page int, mediaType models.MediaType) (providers.Page, error)
}

// BookProvider is the book catalog source (Open Library in production).
type BookProvider interface {
	Search(ctx context.Context, query string, page int) (providers.Page, error)
}

// RequestProber checks for an existing active request by the caller.
type RequestProber interface {
	ActiveRequestStatus(ctx context.Context, userID string, tmdbID int64, mediaType models.MediaType) (models.RequestStatus, bool, error)
}

// DBRequestProber probes the request store directly.
type DBRequestProber struct{}

func (DBRequestProber) ActiveRequestStatus(ctx context.Context, userID string, tmdbID int64, mediaType models.MediaType) (models.RequestStatus, bool, error) {
	return ActiveRequestStatus(ctx, userID, tmdbID, mediaType)
}

// SearchItem is a provider result annotated for the calling user.
type SearchItem struct {
	providers.Item
	ExistingRequest  models.RequestStatus `json:"existing_request,omitempty"`
	AlreadyInLibrary bool                 `json:"already_in_library"`
}

type SearchResponse struct {
	Results      []SearchItem `json:"results"`
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

type SearchService struct {
	movies   MovieTVProvider
	books    BookProvider
	library  LibraryChecker
	requests RequestProber
	libCache *gocache.Cache
}

func NewSearchService(movies MovieTVProvider, books BookProvider, library LibraryChecker, requests RequestProber) *SearchService {
	return &SearchService{
		movies:   movies,
		books:    books,
		library:  library,
		requests: requests,
		libCache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Search queries the catalog providers and merges their results. With no
// filter both providers are queried concurrently and movie/TV results come
// first, books after, each list in provider order. A provider failure or
// timeout degrades its slice to empty rather than failing the search.
//
// Merged pagination is an approximation: total_results sums the providers
// and total_pages takes the maximum, since a true merged page count across
// heterogeneous providers is not defined. Known limitation, kept on purpose.
func (s *SearchService) Search(ctx context.Context, user *models.User, query string, page int, filter models.MediaType) (SearchResponse, error) {
	if len(strings.TrimSpace(query)) < minQueryLength {
		return SearchResponse{}, apperr.ErrQueryTooShort
	}
	if filter != "" && !models.ValidMediaType(filter) {
		return SearchResponse{}, apperr.ErrBadRequest.WithDetail(fmt.Sprintf("unknown media type %q", filter))
	}
	if page < 1 {
		page = 1
	}

	metrics.Searches.Inc()

	var moviePage, bookPage providers.Page
	queryMovies := filter != models.MediaBook
	queryBooks := filter == "" || filter == models.MediaBook

	// Each provider gets its own timeout; a slow or failing provider must
	// not abort the sibling call, so errors stop inside the closures.
	g := new(errgroup.Group)
	if queryMovies {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, providerTimeout)
			defer cancel()
			result, err := s.movies.Search(pctx, query, page, filter)
			if err != nil {
				metrics.ProviderErrors.WithLabelValues("tmdb").Inc()
				slog.Warn("Movie/TV provider search failed", "query", query, "error", err)
				return nil
			}
			moviePage = result
			return nil
		})
	}
	if queryBooks {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, providerTimeout)
			defer cancel()
			result, err := s.books.Search(pctx, query, page)
			if err != nil {
				metrics.ProviderErrors.WithLabelValues("openlibrary").Inc()
				slog.Warn("Book provider search failed", "query", query, "error", err)
				return nil
			}
			bookPage = result
			return nil
		})
	}
	g.Wait()

	resp := SearchResponse{
		Results:      []SearchItem{},
		Page:         page,
		TotalResults: moviePage.TotalResults + bookPage.TotalResults,
		TotalPages:   max(moviePage.TotalPages, bookPage.TotalPages),
	}
	if resp.TotalPages < 1 {
		resp.TotalPages = 1
	}

	for _, item := range moviePage.Results {
		resp.Results = append(resp.Results, s.annotate(ctx, user, item))
	}
	for _, item := range bookPage.Results {
		resp.Results = append(resp.Results, s.annotate(ctx, user, item))
	}

	return resp, nil
}

func (s *SearchService) annotate(ctx context.Context, user *models.User, item providers.Item) SearchItem {
	annotated := SearchItem{Item: item}

	if status, found, err := s.requests.ActiveRequestStatus(ctx, user.ID, item.TMDBID, item.MediaType); err != nil {
		slog.Warn("Request probe failed during search annotation",
			"tmdb_id", item.TMDBID, "error", err)
	} else if found {
		annotated.ExistingRequest = status
	}

	annotated.AlreadyInLibrary = s.inLibraryCached(ctx, item)
	return annotated
}

// inLibraryCached wraps the media server lookup in a short TTL cache so a
// page of search results does not issue one server round trip per item on
// every keystroke.
func (s *SearchService) inLibraryCached(ctx context.Context, item providers.Item) bool {
	if item.MediaType == models.MediaBook {
		return false
	}

	key := fmt.Sprintf("%s:%d", item.MediaType, item.TMDBID)
	if cached, ok := s.libCache.Get(key); ok {
		return cached.(bool)
	}

	inLibrary, err := s.library.InLibrary(ctx, item.Title, item.TMDBID, item.MediaType)
	if err != nil {
		slog.Warn("Library check failed during search annotation",
			"tmdb_id", item.TMDBID, "error", err)
		return false
	}

	s.libCache.Set(key, inLibrary, gocache.DefaultExpiration)
	return inLibrary
}
