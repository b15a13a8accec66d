package news

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"TrendPulse/internal/domain/models"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/util"
)

type searchResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// SearchSource is the keyed JSON news search API, first in the chain when a
// key is configured.
type SearchSource struct {
	client  *xhttp.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewSearchSource(client *xhttp.Client, baseURL, apiKey string, log *logger.Logger) *SearchSource {
	return &SearchSource{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		log:     log,
	}
}

func (s *SearchSource) Name() string { return "search" }

func (s *SearchSource) Articles(ctx context.Context, query string) ([]models.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("search: no API key configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp searchResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL,
		QueryParams: map[string][]string{
			"q":        {query},
			"sortBy":   {"publishedAt"},
			"pageSize": {"10"},
			"language": {"en"},
		},
		Headers: map[string]string{"X-Api-Key": s.apiKey},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("search: status %q", resp.Status)
	}

	articles := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		published, _ := util.ParseTime(a.PublishedAt)
		articles = append(articles, models.Article{
			Title:       a.Title,
			Summary:     a.Description,
			URL:         a.URL,
			PublishedAt: published,
		})
	}
	return articles, nil
}
