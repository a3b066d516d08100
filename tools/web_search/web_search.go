package web_search

import (
	"context"
	"errors"

	"github.com/askpatrick/patrick/config"
	"github.com/askpatrick/patrick/tools/web_search/brave"
	"github.com/askpatrick/patrick/tools/web_search/google"
	"github.com/askpatrick/patrick/tools/web_search/models"
	"github.com/askpatrick/patrick/tools/web_search/serper"
)

// WebSearcher finds up to k web results for a query.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
	GoogleProvider Provider = "google"
)

var ErrUnsupportedProvider = errors.New("unsupported web search provider")

func NewWebSearcher(cfg config.WebSearchConfig) (WebSearcher, error) {
	switch Provider(cfg.Provider) {
	case SerperProvider:
		return serper.Search{ApiKey: cfg.APIKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: cfg.APIKey}, nil
	case GoogleProvider:
		return google.Search{ApiKey: cfg.APIKey, EngineID: cfg.EngineID}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
