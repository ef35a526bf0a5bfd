package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"requestarr/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTMDBSearchMulti(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "dune", r.URL.Query().Get("query"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1, "total_pages": 2, "total_results": 25,
			"results": [
				{"id": 438631, "media_type": "movie", "title": "Dune",
				 "poster_path": "/poster.jpg", "release_date": "2021-09-15", "vote_average": 7.8},
				{"id": 90228, "media_type": "tv", "name": "Dune: Prophecy", "first_air_date": "2024-11-17"},
				{"id": 1, "media_type": "person", "name": "Frank Herbert"}
			]
		}`))
	}))
	defer server.Close()

	client := NewTMDBClient("key", server.URL)
	page, err := client.Search(context.Background(), "dune", 1, "")
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 25, page.TotalResults)

	// People results from multi-search are dropped.
	require.Len(t, page.Results, 2)

	movie := page.Results[0]
	assert.Equal(t, int64(438631), movie.TMDBID)
	assert.Equal(t, models.MediaMovie, movie.MediaType)
	assert.Equal(t, "Dune", movie.Title)
	assert.Equal(t, 2021, movie.Year)
	assert.Equal(t, "https://image.tmdb.org/t/p/w342/poster.jpg", movie.PosterURL)

	tv := page.Results[1]
	assert.Equal(t, models.MediaTV, tv.MediaType)
	assert.Equal(t, "Dune: Prophecy", tv.Title)
	assert.Equal(t, 2024, tv.Year)
	assert.Empty(t, tv.PosterURL)
}

func TestTMDBSearchNarrowedEndpoint(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page": 1, "total_pages": 1, "total_results": 0, "results": []}`))
	}))
	defer server.Close()

	client := NewTMDBClient("key", server.URL)

	_, err := client.Search(context.Background(), "dune", 1, models.MediaMovie)
	require.NoError(t, err)
	assert.Equal(t, "/search/movie", path)

	_, err = client.Search(context.Background(), "dune", 1, models.MediaTV)
	require.NoError(t, err)
	assert.Equal(t, "/search/tv", path)
}

func TestTMDBSearchMissingKey(t *testing.T) {
	client := NewTMDBClient("", "http://unused")
	_, err := client.Search(context.Background(), "dune", 1, "")
	assert.Error(t, err)
}

func TestTMDBMovieDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/438631", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 438631, "title": "Dune", "overview": "Paul Atreides.",
			"release_date": "2021-09-15", "runtime": 155,
			"genres": [{"id": 878, "name": "Science Fiction"}, {"id": 12, "name": "Adventure"}],
			"vote_average": 7.8, "vote_count": 11000
		}`))
	}))
	defer server.Close()

	client := NewTMDBClient("key", server.URL)
	detail, err := client.MovieDetail(context.Background(), 438631)
	require.NoError(t, err)

	assert.Equal(t, int64(438631), detail.TMDBID)
	assert.Equal(t, "Dune", detail.Title)
	assert.Equal(t, 155, detail.Runtime)
	assert.Equal(t, []string{"Science Fiction", "Adventure"}, detail.Genres)
}

func TestTMDBTVDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/90228", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 90228, "name": "Dune: Prophecy", "number_of_seasons": 1,
			"number_of_episodes": 6, "genres": [{"id": 878, "name": "Sci-Fi & Fantasy"}]
		}`))
	}))
	defer server.Close()

	client := NewTMDBClient("key", server.URL)
	detail, err := client.TVDetail(context.Background(), 90228)
	require.NoError(t, err)

	assert.Equal(t, "Dune: Prophecy", detail.Title)
	assert.Equal(t, 1, detail.NumberOfSeasons)
	assert.Equal(t, 6, detail.NumberOfEpisodes)
}
