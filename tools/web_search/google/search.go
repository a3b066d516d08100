package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/askpatrick/patrick/tools/web_search/models"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// Search queries the Google Custom Search JSON API.
type Search struct {
	ApiKey   string
	EngineID string
	Endpoint string // defaults to the Google API when empty
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://developers.google.com/custom-search/v1/overview
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	u := fmt.Sprintf("%s?key=%s&cx=%s&q=%s&num=%d",
		endpoint, url.QueryEscape(s.ApiKey), url.QueryEscape(s.EngineID), url.QueryEscape(q), k)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}
	var raw struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	var out []models.Result
	for i, it := range raw.Items {
		if i >= k {
			break
		}
		out = append(out, models.Result{Title: it.Title, Snippet: it.Snippet, URL: it.Link})
	}
	return out, nil
}
