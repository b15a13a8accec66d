package marketdata

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"TrendPulse/internal/domain/models"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
)

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketOpen          float64 `json:"regularMarketOpen"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			RegularMarketVolume        float64 `json:"regularMarketVolume"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"quoteResponse"`
}

// DirectQuoteSource reads precomputed quote summaries. Second in the
// fallback chain: cheaper than charts but coarser.
type DirectQuoteSource struct {
	client  *xhttp.Client
	baseURL string
	limiter *rate.Limiter
	runner  runner
	log     *logger.Logger
}

func NewDirectQuoteSource(client *xhttp.Client, baseURL string, r runner, log *logger.Logger) *DirectQuoteSource {
	return &DirectQuoteSource{
		client:  client,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(8), 8),
		runner:  r,
		log:     log,
	}
}

func (s *DirectQuoteSource) Name() string { return "quote" }

func (s *DirectQuoteSource) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	quotes := s.runner.fanOut(ctx, symbols, s.fetchOne)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("quote: no symbols resolved")
	}
	return quotes, nil
}

func (s *DirectQuoteSource) fetchOne(ctx context.Context, symbol string) (models.Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Quote{}, err
	}

	var resp quoteResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL,
		QueryParams: map[string][]string{
			"symbols": {symbol + nseSuffix},
		},
	}, &resp)
	if err != nil {
		return models.Quote{}, err
	}

	if len(resp.QuoteResponse.Result) == 0 {
		return models.Quote{}, fmt.Errorf("quote: empty result for %s", symbol)
	}
	row := resp.QuoteResponse.Result[0]
	if row.RegularMarketPrice == 0 {
		return models.Quote{}, fmt.Errorf("quote: no price for %s", symbol)
	}

	open := row.RegularMarketOpen
	if open == 0 {
		open = row.RegularMarketPrice
	}

	return models.Quote{
		Symbol:        symbol,
		Open:          open,
		LastPrice:     row.RegularMarketPrice,
		PercentChange: row.RegularMarketChangePercent,
		Volume:        int64(row.RegularMarketVolume),
	}, nil
}
