package news

import (
	"context"
	"encoding/xml"
	"fmt"

	"golang.org/x/time/rate"

	"TrendPulse/internal/domain/models"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/util"
)

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Description string `xml:"description"`
			Link        string `xml:"link"`
			PubDate     string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// RSSSource reads a public RSS search feed. The query is passed via the
// feed's q parameter; any parameters baked into baseURL are preserved.
type RSSSource struct {
	client  *xhttp.Client
	name    string
	baseURL string
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewRSSSource(client *xhttp.Client, name, baseURL string, log *logger.Logger) *RSSSource {
	return &RSSSource{
		client:  client,
		name:    name,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		log:     log,
	}
}

func (s *RSSSource) Name() string { return s.name }

func (s *RSSSource) Articles(ctx context.Context, query string) ([]models.Article, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL,
		QueryParams: map[string][]string{
			"q": {query},
		},
	}, &body)
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", s.name, err)
	}

	articles := make([]models.Article, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		published, _ := util.ParseTime(item.PubDate)
		articles = append(articles, models.Article{
			Title:       item.Title,
			Summary:     item.Description,
			URL:         item.Link,
			PublishedAt: published,
		})
	}
	return articles, nil
}
