package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"requestarr/httpclient"
	"requestarr/models"
)

const (
	openLibraryPageSize = 20
	coverBase           = "https://covers.openlibrary.org/b/id"
)

type OpenLibraryClient struct {
	baseURL string
}

func NewOpenLibraryClient(baseURL string) *OpenLibraryClient {
	return &OpenLibraryClient{baseURL: baseURL}
}

// ParseWorkID extracts the numeric id from an Open Library work key like
// "/works/OL27448W".
func ParseWorkID(key string) (int64, error) {
	last := key[strings.LastIndex(key, "/")+1:]
	trimmed := strings.TrimSuffix(strings.TrimPrefix(last, "OL"), "W")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid work key %q", key)
	}
	return id, nil
}

// FormatWorkKey is the inverse of ParseWorkID.
func FormatWorkKey(workID int64) string {
	return fmt.Sprintf("OL%dW", workID)
}

// CoverURL builds a cover image URL for a cover id; size is S, M or L.
func CoverURL(coverID int64, size string) string {
	if coverID == 0 {
		return ""
	}
	return fmt.Sprintf("%s/%d-%s.jpg", coverBase, coverID, size)
}

type openLibrarySearchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key              string   `json:"key"`
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		CoverID          int64    `json:"cover_i"`
		EditionCount     int      `json:"edition_count"`
		RatingsAverage   float64  `json:"ratings_average"`
	} `json:"docs"`
}

func (c *OpenLibraryClient) Search(ctx context.Context, query string, page int) (Page, error) {
	searchURL := httpclient.BuildQueryURL(c.baseURL+"/search.json", map[string]string{
		"q":      query,
		"page":   strconv.Itoa(page),
		"limit":  strconv.Itoa(openLibraryPageSize),
		"fields": "key,title,author_name,first_publish_year,cover_i,edition_count,ratings_average",
	})

	resp, err := httpclient.Get(ctx, searchURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("open library search: %w", err)
	}

	var data openLibrarySearchResponse
	if err := httpclient.DecodeJSON(resp, &data); err != nil {
		return Page{}, fmt.Errorf("open library search: %w", err)
	}

	out := Page{
		Page:         page,
		TotalResults: data.NumFound,
		TotalPages:   (data.NumFound + openLibraryPageSize - 1) / openLibraryPageSize,
	}
	if out.TotalPages < 1 {
		out.TotalPages = 1
	}

	for _, doc := range data.Docs {
		workID, err := ParseWorkID(doc.Key)
		if err != nil {
			continue
		}
		out.Results = append(out.Results, Item{
			TMDBID:    workID,
			MediaType: models.MediaBook,
			Title:     doc.Title,
			Authors:   doc.AuthorName,
			Year:      doc.FirstPublishYear,
			Rating:    doc.RatingsAverage,
			PosterURL: CoverURL(doc.CoverID, "M"),
		})
	}

	return out, nil
}

type BookDetail struct {
	WorkID      int64    `json:"ol_work_id"`
	WorkKey     string   `json:"ol_work_key"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Subjects    []string `json:"subjects"`
}

type openLibraryWorkResponse struct {
	Title       string   `json:"title"`
	Description any      `json:"description"`
	Covers      []int64  `json:"covers"`
	Subjects    []string `json:"subjects"`
	Authors     []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
}

// WorkDetail fetches a single work by numeric id.
func (c *OpenLibraryClient) WorkDetail(ctx context.Context, workID int64) (BookDetail, error) {
	workURL := fmt.Sprintf("%s/works/%s.json", c.baseURL, FormatWorkKey(workID))

	resp, err := httpclient.Get(ctx, workURL, nil)
	if err != nil {
		return BookDetail{}, fmt.Errorf("open library work %d: %w", workID, err)
	}

	var data openLibraryWorkResponse
	if err := httpclient.DecodeJSON(resp, &data); err != nil {
		return BookDetail{}, fmt.Errorf("open library work %d: %w", workID, err)
	}

	detail := BookDetail{
		WorkID:  workID,
		WorkKey: FormatWorkKey(workID),
		Title:   data.Title,
	}

	// Description is either a plain string or {type, value}
	switch d := data.Description.(type) {
	case string:
		detail.Description = d
	case map[string]any:
		if v, ok := d["value"].(string); ok {
			detail.Description = v
		}
	}

	if len(data.Covers) > 0 {
		detail.CoverURL = CoverURL(data.Covers[0], "L")
	}

	if len(data.Subjects) > 15 {
		detail.Subjects = data.Subjects[:15]
	} else {
		detail.Subjects = data.Subjects
	}

	for _, a := range data.Authors {
		key := a.Author.Key
		detail.Authors = append(detail.Authors, key[strings.LastIndex(key, "/")+1:])
	}

	return detail, nil
}

// Ping issues a minimal search to verify the provider is reachable.
func (c *OpenLibraryClient) Ping(ctx context.Context) error {
	pingURL := httpclient.BuildQueryURL(c.baseURL+"/search.json", map[string]string{
		"q":     "the",
		"limit": "1",
	})
	resp, err := httpclient.Get(ctx, pingURL, httpclient.ProbeClient)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
