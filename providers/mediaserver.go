package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"requestarr/httpclient"
	"requestarr/models"
)

// MediaServerClient talks to a Jellyfin-compatible media server. It is used
// for library-membership checks and the health probe; playback and library
// management stay on the server itself.
type MediaServerClient struct {
	baseURL string
	apiKey  string
}

func NewMediaServerClient(baseURL, apiKey string) *MediaServerClient {
	return &MediaServerClient{baseURL: baseURL, apiKey: apiKey}
}

type mediaServerItems struct {
	Items []struct {
		ID          string            `json:"Id"`
		Name        string            `json:"Name"`
		ProviderIds map[string]string `json:"ProviderIds"`
	} `json:"Items"`
	TotalRecordCount int `json:"TotalRecordCount"`
}

// InLibrary reports whether the server library already holds the title,
// matched by TMDB provider id. Books are never in the media server library.
func (c *MediaServerClient) InLibrary(ctx context.Context, title string, tmdbID int64, mediaType models.MediaType) (bool, error) {
	if mediaType == models.MediaBook {
		return false, nil
	}
	if c.apiKey == "" {
		// No server configured; treat everything as missing from the library
		return false, nil
	}

	itemType := "Movie"
	if mediaType == models.MediaTV {
		itemType = "Series"
	}

	itemsURL := httpclient.BuildQueryURL(c.baseURL+"/Items", map[string]string{
		"SearchTerm":       title,
		"IncludeItemTypes": itemType,
		"Recursive":        "true",
		"Limit":            "10",
		"Fields":           "ProviderIds",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, itemsURL, nil)
	if err != nil {
		return false, fmt.Errorf("media server items: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := httpclient.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("media server items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("media server returned status %d", resp.StatusCode)
	}

	var data mediaServerItems
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false, fmt.Errorf("media server items: %w", err)
	}

	want := strconv.FormatInt(tmdbID, 10)
	for _, item := range data.Items {
		if item.ProviderIds["Tmdb"] == want {
			return true, nil
		}
	}
	return false, nil
}

type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

// Info probes the public system-info endpoint. It needs no credentials and
// doubles as the health check.
func (c *MediaServerClient) Info(ctx context.Context) (SystemInfo, error) {
	resp, err := httpclient.Get(ctx, c.baseURL+"/System/Info/Public", httpclient.ProbeClient)
	if err != nil {
		return SystemInfo{}, fmt.Errorf("media server info: %w", err)
	}

	var info SystemInfo
	if err := httpclient.DecodeJSON(resp, &info); err != nil {
		return SystemInfo{}, fmt.Errorf("media server info: %w", err)
	}
	return info, nil
}
