package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"TrendPulse/internal/domain/models"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/util"
)

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
	Note string `json:"Note"`
}

// SecondarySource is the keyed third-party quote provider. Its free tier is
// heavily rate limited, so the limiter here is deliberately slow.
type SecondarySource struct {
	client  *xhttp.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	runner  runner
	log     *logger.Logger
}

func NewSecondarySource(client *xhttp.Client, baseURL, apiKey string, r runner, log *logger.Logger) *SecondarySource {
	return &SecondarySource{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(12*time.Second), 1),
		runner:  r,
		log:     log,
	}
}

func (s *SecondarySource) Name() string { return "secondary" }

func (s *SecondarySource) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("secondary: no API key configured")
	}
	quotes := s.runner.fanOut(ctx, symbols, s.fetchOne)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("secondary: no symbols resolved")
	}
	return quotes, nil
}

func (s *SecondarySource) fetchOne(ctx context.Context, symbol string) (models.Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Quote{}, err
	}

	var resp globalQuoteResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL,
		QueryParams: map[string][]string{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {symbol + ".BSE"},
			"apikey":   {s.apiKey},
		},
	}, &resp)
	if err != nil {
		return models.Quote{}, err
	}
	if resp.Note != "" {
		return models.Quote{}, fmt.Errorf("secondary: rate limited")
	}

	price := util.ParseFloatDefault(resp.GlobalQuote.Price, 0)
	if price == 0 {
		return models.Quote{}, fmt.Errorf("secondary: empty quote for %s", symbol)
	}
	open := util.ParseFloatDefault(resp.GlobalQuote.Open, price)
	pct := util.ParseFloatDefault(strings.TrimSuffix(resp.GlobalQuote.ChangePercent, "%"), 0)

	return models.Quote{
		Symbol:        symbol,
		Open:          open,
		LastPrice:     price,
		PercentChange: pct,
		Volume:        int64(util.ParseIntDefault(resp.GlobalQuote.Volume, 0)),
	}, nil
}
