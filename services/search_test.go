package services

import (
	"context"
	"errors"
	"testing"

	"requestarr/apperr"
	"requestarr/models"
	"requestarr/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMovieProvider struct {
	page providers.Page
	err  error
}

func (f *fakeMovieProvider) Search(ctx context.Context, query string, page int, mediaType models.MediaType) (providers.Page, error) {
	return f.page, f.err
}

type fakeBookProvider struct {
	page providers.Page
	err  error
}

func (f *fakeBookProvider) Search(ctx context.Context, query string, page int) (providers.Page, error) {
	return f.page, f.err
}

type fakeLibrary struct {
	inLibrary map[int64]bool
	err       error
	calls     int
}

func (f *fakeLibrary) InLibrary(ctx context.Context, title string, tmdbID int64, mediaType models.MediaType) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.inLibrary[tmdbID], nil
}

type fakeProber struct {
	statuses map[int64]models.RequestStatus
}

func (f *fakeProber) ActiveRequestStatus(ctx context.Context, userID string, tmdbID int64, mediaType models.MediaType) (models.RequestStatus, bool, error) {
	status, ok := f.statuses[tmdbID]
	return status, ok, nil
}

func movieItem(id int64, title string) providers.Item {
	return providers.Item{TMDBID: id, MediaType: models.MediaMovie, Title: title}
}

func bookItem(id int64, title string) providers.Item {
	return providers.Item{TMDBID: id, MediaType: models.MediaBook, Title: title}
}

func newTestSearchService(movies *fakeMovieProvider, books *fakeBookProvider, library *fakeLibrary, prober *fakeProber) *SearchService {
	if library == nil {
		library = &fakeLibrary{}
	}
	if prober == nil {
		prober = &fakeProber{}
	}
	return NewSearchService(movies, books, library, prober)
}

var searchUser = &models.User{ID: "u-1", Username: "alice", Role: models.RoleUser}

func TestSearchMergesMoviesBeforeBooks(t *testing.T) {
	movies := &fakeMovieProvider{page: providers.Page{
		Results:      []providers.Item{movieItem(1, "Dune"), movieItem(2, "Dune: Part Two")},
		TotalPages:   3,
		TotalResults: 42,
	}}
	books := &fakeBookProvider{page: providers.Page{
		Results:      []providers.Item{bookItem(27448, "Dune")},
		TotalPages:   5,
		TotalResults: 10,
	}}
	svc := newTestSearchService(movies, books, nil, nil)

	resp, err := svc.Search(context.Background(), searchUser, "dune", 1, "")
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, models.MediaMovie, resp.Results[0].MediaType)
	assert.Equal(t, models.MediaMovie, resp.Results[1].MediaType)
	assert.Equal(t, models.MediaBook, resp.Results[2].MediaType)

	assert.Equal(t, 52, resp.TotalResults)
	assert.Equal(t, 5, resp.TotalPages)
	assert.Equal(t, 1, resp.Page)
}

func TestSearchQueryTooShort(t *testing.T) {
	svc := newTestSearchService(&fakeMovieProvider{}, &fakeBookProvider{}, nil, nil)

	_, err := svc.Search(context.Background(), searchUser, "a", 1, "")
	assert.ErrorIs(t, err, apperr.ErrQueryTooShort)

	// Whitespace padding does not rescue a short query.
	_, err = svc.Search(context.Background(), searchUser, "  a  ", 1, "")
	assert.ErrorIs(t, err, apperr.ErrQueryTooShort)
}

func TestSearchUnknownFilter(t *testing.T) {
	svc := newTestSearchService(&fakeMovieProvider{}, &fakeBookProvider{}, nil, nil)

	_, err := svc.Search(context.Background(), searchUser, "dune", 1, "podcast")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestSearchProviderFailureDegrades(t *testing.T) {
	movies := &fakeMovieProvider{err: errors.New("tmdb down")}
	books := &fakeBookProvider{page: providers.Page{
		Results:      []providers.Item{bookItem(1, "Dune")},
		TotalPages:   2,
		TotalResults: 7,
	}}
	svc := newTestSearchService(movies, books, nil, nil)

	resp, err := svc.Search(context.Background(), searchUser, "dune", 1, "")
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.MediaBook, resp.Results[0].MediaType)
	assert.Equal(t, 7, resp.TotalResults)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestSearchBothProvidersFailing(t *testing.T) {
	svc := newTestSearchService(
		&fakeMovieProvider{err: errors.New("down")},
		&fakeBookProvider{err: errors.New("down")},
		nil, nil)

	resp, err := svc.Search(context.Background(), searchUser, "dune", 1, "")
	require.NoError(t, err)

	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.TotalResults)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestSearchFilterSkipsOtherProvider(t *testing.T) {
	movies := &fakeMovieProvider{page: providers.Page{
		Results: []providers.Item{movieItem(1, "Dune")}, TotalPages: 1, TotalResults: 1,
	}}
	books := &fakeBookProvider{err: errors.New("must not be called")}
	svc := newTestSearchService(movies, books, nil, nil)

	resp, err := svc.Search(context.Background(), searchUser, "dune", 1, models.MediaMovie)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.MediaMovie, resp.Results[0].MediaType)
}

func TestSearchAnnotatesExistingRequest(t *testing.T) {
	movies := &fakeMovieProvider{page: providers.Page{
		Results:      []providers.Item{movieItem(1, "Dune"), movieItem(2, "Arrival")},
		TotalPages:   1,
		TotalResults: 2,
	}}
	prober := &fakeProber{statuses: map[int64]models.RequestStatus{1: models.RequestApproved}}
	svc := newTestSearchService(movies, &fakeBookProvider{}, nil, prober)

	resp, err := svc.Search(context.Background(), searchUser, "dune", 1, models.MediaMovie)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.Equal(t, models.RequestApproved, resp.Results[0].ExistingRequest)
	assert.Empty(t, resp.Results[1].ExistingRequest)
}

func TestSearchAnnotatesLibraryMembership(t *testing.T) {
	movies := &fakeMovieProvider{page: providers.Page{
		Results:      []providers.Item{movieItem(1, "Dune"), movieItem(2, "Arrival")},
		TotalPages:   1,
		TotalResults: 2,
	}}
	library := &fakeLibrary{inLibrary: map[int64]bool{2: true}}
	svc := newTestSearchService(movies, &fakeBookProvider{}, library, nil)

	resp, err := svc.Search(context.Background(), searchUser, "dune", 1, models.MediaMovie)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.False(t, resp.Results[0].AlreadyInLibrary)
	assert.True(t, resp.Results[1].AlreadyInLibrary)
}

func TestSearchLibraryLookupCached(t *testing.T) {
	movies := &fakeMovieProvider{page: providers.Page{
		Results:      []providers.Item{movieItem(1, "Dune")},
		TotalPages:   1,
		TotalResults: 1,
	}}
	library := &fakeLibrary{inLibrary: map[int64]bool{1: true}}
	svc := newTestSearchService(movies, &fakeBookProvider{}, library, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Search(context.Background(), searchUser, "dune", 1, models.MediaMovie)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, library.calls)
}

func TestSearchBooksSkipLibraryCheck(t *testing.T) {
	books := &fakeBookProvider{page: providers.Page{
		Results:      []providers.Item{bookItem(27448, "Dune")},
		TotalPages:   1,
		TotalResults: 1,
	}}
	library := &fakeLibrary{err: errors.New("must not be called")}
	svc := newTestSearchService(&fakeMovieProvider{}, books, library, nil)

	resp, err := svc.Search(context.Background(), searchUser, "dune", 1, models.MediaBook)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].AlreadyInLibrary)
	assert.Zero(t, library.calls)
}
