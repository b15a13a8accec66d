package marketdata

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"TrendPulse/internal/domain/models"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
)

// nseSuffix is appended to bare exchange symbols for the chart/quote APIs.
const nseSuffix = ".NS"

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
				RegularMarketVolume float64 `json:"regularMarketVolume"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// IntradaySource builds quotes from 5-minute intraday bars. It is the
// primary source and also serves previous-session quotes from daily bars.
type IntradaySource struct {
	client  *xhttp.Client
	baseURL string
	limiter *rate.Limiter
	runner  runner
	log     *logger.Logger
}

func NewIntradaySource(client *xhttp.Client, baseURL string, r runner, log *logger.Logger) *IntradaySource {
	return &IntradaySource{
		client:  client,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(8), 8),
		runner:  r,
		log:     log,
	}
}

func (s *IntradaySource) Name() string { return "intraday" }

// Quotes fetches intraday chart data for every symbol in parallel. Symbols
// that fail all attempts are simply absent from the result.
func (s *IntradaySource) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	quotes := s.runner.fanOut(ctx, symbols, s.fetchOne)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("intraday: no symbols resolved")
	}
	return quotes, nil
}

func (s *IntradaySource) fetchOne(ctx context.Context, symbol string) (models.Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Quote{}, err
	}

	var resp chartResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/%s%s", s.baseURL, symbol, nseSuffix),
		QueryParams: map[string][]string{
			"interval": {"5m"},
			"range":    {"1d"},
		},
	}, &resp)
	if err != nil {
		return models.Quote{}, err
	}
	return quoteFromChart(symbol, &resp)
}

func quoteFromChart(symbol string, resp *chartResponse) (models.Quote, error) {
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return models.Quote{}, fmt.Errorf("chart: empty result for %s", symbol)
	}
	result := resp.Chart.Result[0]
	bars := result.Indicators.Quote[0]

	open := firstValue(bars.Open)
	last := result.Meta.RegularMarketPrice
	if last == 0 {
		last = lastValue(bars.Close)
	}
	if open == 0 || last == 0 {
		return models.Quote{}, fmt.Errorf("chart: no usable bars for %s", symbol)
	}

	volume := result.Meta.RegularMarketVolume
	if volume == 0 {
		volume = sumValues(bars.Volume)
	}

	baseline := result.Meta.ChartPreviousClose
	if baseline <= 0 {
		baseline = open
	}

	return models.Quote{
		Symbol:        symbol,
		Open:          open,
		LastPrice:     last,
		PercentChange: (last - baseline) / baseline * 100,
		Volume:        int64(volume),
	}, nil
}

// PreviousSession derives quotes from the last two daily bars: the final
// bar carries open/close/volume, the bar before it anchors the day-over-day
// percent change.
func (s *IntradaySource) PreviousSession(ctx context.Context, symbols []string) ([]models.Quote, error) {
	quotes := s.runner.fanOut(ctx, symbols, s.fetchDaily)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("intraday: no daily bars resolved")
	}
	return quotes, nil
}

func (s *IntradaySource) fetchDaily(ctx context.Context, symbol string) (models.Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Quote{}, err
	}

	var resp chartResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/%s%s", s.baseURL, symbol, nseSuffix),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {"5d"},
		},
	}, &resp)
	if err != nil {
		return models.Quote{}, err
	}
	return quoteFromDailyBars(symbol, &resp)
}

func quoteFromDailyBars(symbol string, resp *chartResponse) (models.Quote, error) {
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return models.Quote{}, fmt.Errorf("chart: empty daily result for %s", symbol)
	}
	bars := resp.Chart.Result[0].Indicators.Quote[0]

	type bar struct{ open, close, volume float64 }
	var valid []bar
	for i := range bars.Close {
		if bars.Close[i] == nil || *bars.Close[i] == 0 {
			continue
		}
		b := bar{close: *bars.Close[i]}
		if i < len(bars.Open) && bars.Open[i] != nil {
			b.open = *bars.Open[i]
		}
		if i < len(bars.Volume) && bars.Volume[i] != nil {
			b.volume = *bars.Volume[i]
		}
		valid = append(valid, b)
	}
	if len(valid) < 2 {
		return models.Quote{}, fmt.Errorf("chart: need two daily bars for %s, got %d", symbol, len(valid))
	}

	last := valid[len(valid)-1]
	prev := valid[len(valid)-2]
	open := last.open
	if open == 0 {
		open = prev.close
	}

	return models.Quote{
		Symbol:        symbol,
		Open:          open,
		LastPrice:     last.close,
		PercentChange: (last.close - prev.close) / prev.close * 100,
		Volume:        int64(last.volume),
	}, nil
}

func firstValue(vals []*float64) float64 {
	for _, v := range vals {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}

func lastValue(vals []*float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] != nil && *vals[i] != 0 {
			return *vals[i]
		}
	}
	return 0
}

func sumValues(vals []*float64) float64 {
	var sum float64
	for _, v := range vals {
		if v != nil {
			sum += *v
		}
	}
	return sum
}
