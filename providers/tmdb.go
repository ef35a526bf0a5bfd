package providers

import (
	"context"
	"fmt"
	"strconv"

	"requestarr/httpclient"
	"requestarr/models"
)

const tmdbImageBase = "https://image.tmdb.org/t/p/w342"

type TMDBClient struct {
	apiKey  string
	baseURL string
}

func NewTMDBClient(apiKey, baseURL string) *TMDBClient {
	return &TMDBClient{apiKey: apiKey, baseURL: baseURL}
}

type tmdbSearchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID           int64   `json:"id"`
		MediaType    string  `json:"media_type"`
		Title        string  `json:"title"`
		Name         string  `json:"name"`
		Overview     string  `json:"overview"`
		PosterPath   string  `json:"poster_path"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
		VoteAverage  float64 `json:"vote_average"`
	} `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// Search queries TMDB. An empty mediaType uses multi-search (movies and TV
// mixed); movie or tv narrows to the matching endpoint.
func (c *TMDBClient) Search(ctx context.Context, query string, page int, mediaType models.MediaType) (Page, error) {
	if c.apiKey == "" {
		return Page{}, fmt.Errorf("TMDB_API_KEY is not set")
	}

	endpoint := c.baseURL + "/search/multi"
	switch mediaType {
	case models.MediaMovie:
		endpoint = c.baseURL + "/search/movie"
	case models.MediaTV:
		endpoint = c.baseURL + "/search/tv"
	}

	searchURL := httpclient.BuildQueryURL(endpoint, map[string]string{
		"api_key":       c.apiKey,
		"query":         query,
		"page":          strconv.Itoa(page),
		"include_adult": "false",
	})

	resp, err := httpclient.Get(ctx, searchURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("tmdb search: %w", err)
	}

	var data tmdbSearchResponse
	if err := httpclient.DecodeJSON(resp, &data); err != nil {
		return Page{}, fmt.Errorf("tmdb search: %w", err)
	}

	out := Page{
		Page:         data.Page,
		TotalPages:   data.TotalPages,
		TotalResults: data.TotalResults,
	}
	for _, r := range data.Results {
		mt := mediaType
		if mt == "" {
			// multi-search mixes in people; keep movies and TV only
			switch r.MediaType {
			case "movie":
				mt = models.MediaMovie
			case "tv":
				mt = models.MediaTV
			default:
				continue
			}
		}

		title := r.Title
		date := r.ReleaseDate
		if mt == models.MediaTV {
			title = r.Name
			date = r.FirstAirDate
		}

		item := Item{
			TMDBID:     r.ID,
			MediaType:  mt,
			Title:      title,
			Overview:   r.Overview,
			PosterPath: r.PosterPath,
			Rating:     r.VoteAverage,
		}
		if r.PosterPath != "" {
			item.PosterURL = tmdbImageBase + r.PosterPath
		}
		if len(date) >= 4 {
			if y, err := strconv.Atoi(date[:4]); err == nil {
				item.Year = y
			}
		}
		out.Results = append(out.Results, item)
	}

	return out, nil
}

type MovieDetail struct {
	TMDBID      int64    `json:"tmdb_id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview,omitempty"`
	PosterPath  string   `json:"poster_path,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
	Genres      []string `json:"genres"`
	VoteAverage float64  `json:"vote_average,omitempty"`
	VoteCount   int      `json:"vote_count,omitempty"`
}

type TVDetail struct {
	TMDBID           int64    `json:"tmdb_id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview,omitempty"`
	PosterPath       string   `json:"poster_path,omitempty"`
	FirstAirDate     string   `json:"first_air_date,omitempty"`
	NumberOfSeasons  int      `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int      `json:"number_of_episodes,omitempty"`
	Genres           []string `json:"genres"`
	VoteAverage      float64  `json:"vote_average,omitempty"`
	VoteCount        int      `json:"vote_count,omitempty"`
}

type tmdbGenre struct {
	Name string `json:"name"`
}

func genreNames(genres []tmdbGenre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

func (c *TMDBClient) MovieDetail(ctx context.Context, tmdbID int64) (MovieDetail, error) {
	detailURL := httpclient.BuildQueryURL(fmt.Sprintf("%s/movie/%d", c.baseURL, tmdbID), map[string]string{
		"api_key": c.apiKey,
	})

	resp, err := httpclient.Get(ctx, detailURL, nil)
	if err != nil {
		return MovieDetail{}, fmt.Errorf("tmdb movie detail: %w", err)
	}

	var data struct {
		ID          int64       `json:"id"`
		Title       string      `json:"title"`
		Overview    string      `json:"overview"`
		PosterPath  string      `json:"poster_path"`
		ReleaseDate string      `json:"release_date"`
		Runtime     int         `json:"runtime"`
		Genres      []tmdbGenre `json:"genres"`
		VoteAverage float64     `json:"vote_average"`
		VoteCount   int         `json:"vote_count"`
	}
	if err := httpclient.DecodeJSON(resp, &data); err != nil {
		return MovieDetail{}, fmt.Errorf("tmdb movie detail: %w", err)
	}

	return MovieDetail{
		TMDBID:      data.ID,
		Title:       data.Title,
		Overview:    data.Overview,
		PosterPath:  data.PosterPath,
		ReleaseDate: data.ReleaseDate,
		Runtime:     data.Runtime,
		Genres:      genreNames(data.Genres),
		VoteAverage: data.VoteAverage,
		VoteCount:   data.VoteCount,
	}, nil
}

func (c *TMDBClient) TVDetail(ctx context.Context, tmdbID int64) (TVDetail, error) {
	detailURL := httpclient.BuildQueryURL(fmt.Sprintf("%s/tv/%d", c.baseURL, tmdbID), map[string]string{
		"api_key": c.apiKey,
	})

	resp, err := httpclient.Get(ctx, detailURL, nil)
	if err != nil {
		return TVDetail{}, fmt.Errorf("tmdb tv detail: %w", err)
	}

	var data struct {
		ID               int64       `json:"id"`
		Name             string      `json:"name"`
		Overview         string      `json:"overview"`
		PosterPath       string      `json:"poster_path"`
		FirstAirDate     string      `json:"first_air_date"`
		NumberOfSeasons  int         `json:"number_of_seasons"`
		NumberOfEpisodes int         `json:"number_of_episodes"`
		Genres           []tmdbGenre `json:"genres"`
		VoteAverage      float64     `json:"vote_average"`
		VoteCount        int         `json:"vote_count"`
	}
	if err := httpclient.DecodeJSON(resp, &data); err != nil {
		return TVDetail{}, fmt.Errorf("tmdb tv detail: %w", err)
	}

	return TVDetail{
		TMDBID:           data.ID,
		Title:            data.Name,
		Overview:         data.Overview,
		PosterPath:       data.PosterPath,
		FirstAirDate:     data.FirstAirDate,
		NumberOfSeasons:  data.NumberOfSeasons,
		NumberOfEpisodes: data.NumberOfEpisodes,
		Genres:           genreNames(data.Genres),
		VoteAverage:      data.VoteAverage,
		VoteCount:        data.VoteCount,
	}, nil
}

// Ping verifies the API key against the configuration endpoint.
func (c *TMDBClient) Ping(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("TMDB_API_KEY is not set")
	}
	pingURL := httpclient.BuildQueryURL(c.baseURL+"/configuration", map[string]string{
		"api_key": c.apiKey,
	})
	resp, err := httpclient.Get(ctx, pingURL, httpclient.ProbeClient)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
