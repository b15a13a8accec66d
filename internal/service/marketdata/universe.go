package marketdata

import (
	"context"
	"strings"
	"sync"

	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
)

// staticUniverse is the bundled symbol list used when the live registry is
// unavailable.
var staticUniverse = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK", "HINDUNILVR",
	"ITC", "SBIN", "BHARTIARTL", "KOTAKBANK", "LT", "AXISBANK",
	"ASIANPAINT", "MARUTI", "WIPRO", "HCLTECH", "SUNPHARMA", "TITAN",
	"ULTRACEMCO", "BAJFINANCE", "NTPC", "POWERGRID", "ONGC", "TATAMOTORS",
	"TATASTEEL", "JSWSTEEL", "ADANIENT", "COALINDIA", "NESTLEIND", "TECHM",
}

// defaultUniverse is the last-resort hardcoded list.
var defaultUniverse = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK",
	"SBIN", "ITC", "LT", "BHARTIARTL", "TATAMOTORS",
}

// UniverseResolver resolves the instrument universe once per process:
// live registry endpoint, then the bundled static list, then the default.
type UniverseResolver struct {
	client      *xhttp.Client
	registryURL string
	log         *logger.Logger

	once    sync.Once
	symbols []string
}

// NewUniverseResolver creates a resolver. registryURL may be empty.
func NewUniverseResolver(client *xhttp.Client, registryURL string, log *logger.Logger) *UniverseResolver {
	return &UniverseResolver{client: client, registryURL: registryURL, log: log}
}

type registryResponse struct {
	Data []struct {
		Symbol string `json:"symbol"`
	} `json:"data"`
}

// Resolve returns the universe, memoized after the first success. The
// fallback chain never fails: the hardcoded default always applies.
func (u *UniverseResolver) Resolve(ctx context.Context) []string {
	u.once.Do(func() {
		if syms := u.fromRegistry(ctx); len(syms) > 0 {
			u.log.Info("universe resolved from registry", logger.Int("symbols", len(syms)))
			u.symbols = syms
			return
		}
		if len(staticUniverse) > 0 {
			u.log.Info("universe resolved from bundled list", logger.Int("symbols", len(staticUniverse)))
			u.symbols = staticUniverse
			return
		}
		u.symbols = defaultUniverse
	})
	return u.symbols
}

func (u *UniverseResolver) fromRegistry(ctx context.Context) []string {
	if u.registryURL == "" {
		return nil
	}
	var resp registryResponse
	err := u.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    u.registryURL,
	}, &resp)
	if err != nil {
		u.log.Warn("universe registry unavailable", logger.Error(err))
		return nil
	}
	symbols := make([]string, 0, len(resp.Data))
	seen := make(map[string]struct{}, len(resp.Data))
	for _, row := range resp.Data {
		s := strings.ToUpper(strings.TrimSpace(row.Symbol))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	return symbols
}
