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

func TestParseWorkID(t *testing.T) {
	id, err := ParseWorkID("/works/OL27448W")
	require.NoError(t, err)
	assert.Equal(t, int64(27448), id)

	id, err = ParseWorkID("OL45804W")
	require.NoError(t, err)
	assert.Equal(t, int64(45804), id)

	_, err = ParseWorkID("/works/not-a-key")
	assert.Error(t, err)

	_, err = ParseWorkID("")
	assert.Error(t, err)
}

func TestFormatWorkKey(t *testing.T) {
	assert.Equal(t, "OL27448W", FormatWorkKey(27448))

	// Round trip
	id, err := ParseWorkID("/works/" + FormatWorkKey(12345))
	require.NoError(t, err)
	assert.Equal(t, int64(12345), id)
}

func TestCoverURL(t *testing.T) {
	assert.Equal(t, "https://covers.openlibrary.org/b/id/8566787-M.jpg", CoverURL(8566787, "M"))
	assert.Empty(t, CoverURL(0, "L"))
}

func TestOpenLibrarySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"numFound": 41,
			"docs": [
				{"key": "/works/OL893415W", "title": "Dune", "author_name": ["Frank Herbert"],
				 "first_publish_year": 1965, "cover_i": 11481354, "ratings_average": 4.2},
				{"key": "/works/bogus", "title": "Broken Key"}
			]
		}`))
	}))
	defer server.Close()

	client := NewOpenLibraryClient(server.URL)
	page, err := client.Search(context.Background(), "dune", 1)
	require.NoError(t, err)

	assert.Equal(t, 41, page.TotalResults)
	assert.Equal(t, 3, page.TotalPages) // ceil(41/20)

	// Docs with unparseable work keys are dropped.
	require.Len(t, page.Results, 1)
	item := page.Results[0]
	assert.Equal(t, int64(893415), item.TMDBID)
	assert.Equal(t, models.MediaBook, item.MediaType)
	assert.Equal(t, "Dune", item.Title)
	assert.Equal(t, []string{"Frank Herbert"}, item.Authors)
	assert.Equal(t, 1965, item.Year)
	assert.Contains(t, item.PosterURL, "11481354-M.jpg")
}

func TestOpenLibraryWorkDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works/OL893415W.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Dune",
			"description": {"type": "/type/text", "value": "A desert planet."},
			"covers": [11481354, 99],
			"subjects": ["Science fiction", "Deserts"],
			"authors": [{"author": {"key": "/authors/OL79034A"}}]
		}`))
	}))
	defer server.Close()

	client := NewOpenLibraryClient(server.URL)
	detail, err := client.WorkDetail(context.Background(), 893415)
	require.NoError(t, err)

	assert.Equal(t, int64(893415), detail.WorkID)
	assert.Equal(t, "OL893415W", detail.WorkKey)
	assert.Equal(t, "Dune", detail.Title)
	assert.Equal(t, "A desert planet.", detail.Description)
	assert.Contains(t, detail.CoverURL, "11481354-L.jpg")
	assert.Equal(t, []string{"Science fiction", "Deserts"}, detail.Subjects)
	assert.Equal(t, []string{"OL79034A"}, detail.Authors)
}

func TestOpenLibraryWorkDetailStringDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title": "Dune", "description": "Plain string."}`))
	}))
	defer server.Close()

	client := NewOpenLibraryClient(server.URL)
	detail, err := client.WorkDetail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Plain string.", detail.Description)
}
