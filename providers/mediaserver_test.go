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

func TestInLibraryMatchesByProviderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Items", r.URL.Path)
		assert.Equal(t, "token", r.Header.Get("X-Emby-Token"))
		assert.Equal(t, "Movie", r.URL.Query().Get("IncludeItemTypes"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Items": [
				{"Id": "abc", "Name": "Dune (1984)", "ProviderIds": {"Tmdb": "841"}},
				{"Id": "def", "Name": "Dune", "ProviderIds": {"Tmdb": "438631"}}
			],
			"TotalRecordCount": 2
		}`))
	}))
	defer server.Close()

	client := NewMediaServerClient(server.URL, "token")

	found, err := client.InLibrary(context.Background(), "Dune", 438631, models.MediaMovie)
	require.NoError(t, err)
	assert.True(t, found)

	// A name hit without a matching provider id is not a library match.
	found, err = client.InLibrary(context.Background(), "Dune", 999999, models.MediaMovie)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInLibraryTVUsesSeriesType(t *testing.T) {
	var itemType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		itemType = r.URL.Query().Get("IncludeItemTypes")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Items": [], "TotalRecordCount": 0}`))
	}))
	defer server.Close()

	client := NewMediaServerClient(server.URL, "token")
	_, err := client.InLibrary(context.Background(), "Dune: Prophecy", 90228, models.MediaTV)
	require.NoError(t, err)
	assert.Equal(t, "Series", itemType)
}

func TestInLibrarySkipsBooksAndUnconfigured(t *testing.T) {
	// Books never hit the media server.
	client := NewMediaServerClient("http://unused", "token")
	found, err := client.InLibrary(context.Background(), "Dune", 893415, models.MediaBook)
	require.NoError(t, err)
	assert.False(t, found)

	// No API key means no server configured, nothing is in the library.
	client = NewMediaServerClient("http://unused", "")
	found, err = client.InLibrary(context.Background(), "Dune", 438631, models.MediaMovie)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInLibraryServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewMediaServerClient(server.URL, "bad-token")
	_, err := client.InLibrary(context.Background(), "Dune", 438631, models.MediaMovie)
	assert.Error(t, err)
}

func TestSystemInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/System/Info/Public", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ServerName": "Bookshelf", "Version": "10.9.2"}`))
	}))
	defer server.Close()

	client := NewMediaServerClient(server.URL, "")
	info, err := client.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bookshelf", info.ServerName)
	assert.Equal(t, "10.9.2", info.Version)
}
