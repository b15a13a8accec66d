package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/retry"
)

// maxArticlesPerSymbol caps the news payload sent per symbol; the agent
// ignores anything beyond this anyway.
const maxArticlesPerSymbol = 8

type wireArticle struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

type classifyRequest struct {
	Symbols []string                 `json:"symbols"`
	News    map[string][]wireArticle `json:"news"`
}

type classifyResponse struct {
	Data []models.ClassifiedPick `json:"data"`
	TS   string                  `json:"ts"`
}

type healthResponse struct {
	Agent string `json:"agent"`
	Redis string `json:"redis"`
}

// Client talks to the external classification agent. All counters are
// process-lifetime and answer the metrics endpoint.
type Client struct {
	client  *xhttp.Client
	baseURL string
	enabled bool
	policy  retry.Policy
	metrics repository.Metrics
	log     *logger.Logger

	mu    sync.Mutex
	stats models.AgentMetrics
}

func NewClient(cfg *config.Config, client *xhttp.Client, metrics repository.Metrics, log *logger.Logger) *Client {
	return &Client{
		client:  client,
		baseURL: cfg.Agent.BaseURL,
		enabled: cfg.Agent.Enabled,
		policy: retry.Policy{
			MaxAttempts: cfg.Agent.Retries + 1,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Timeout:     cfg.Agent.Timeout,
		},
		metrics: metrics,
		log:     log,
	}
}

func (c *Client) Enabled() bool { return c.enabled }

// Classify sends one batch to the agent. A batch either fully succeeds or
// fully fails; per-symbol degradation happens agent-side.
func (c *Client) Classify(ctx context.Context, symbols []string, news map[string][]models.Article) ([]models.ClassifiedPick, error) {
	if !c.enabled {
		return nil, fmt.Errorf("classifier: disabled")
	}

	req := classifyRequest{
		Symbols: symbols,
		News:    make(map[string][]wireArticle, len(symbols)),
	}
	for _, symbol := range symbols {
		articles := news[symbol]
		if len(articles) > maxArticlesPerSymbol {
			articles = articles[:maxArticlesPerSymbol]
		}
		wired := make([]wireArticle, 0, len(articles))
		for _, a := range articles {
			wired = append(wired, wireArticle{Title: a.Title, Summary: a.Summary, URL: a.URL})
		}
		req.News[symbol] = wired
	}

	started := time.Now()
	resp, err := retry.DoValue(ctx, c.policy, func(ctx context.Context) (classifyResponse, error) {
		var out classifyResponse
		attemptStart := time.Now()
		callErr := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    c.baseURL + "/picks",
			Body:   req,
		}, &out)
		c.recordAttempt(callErr == nil, time.Since(attemptStart))
		return out, callErr
	})

	if err != nil {
		c.recordBatchFailure(err)
		return nil, fmt.Errorf("classifier: %w", err)
	}
	c.recordBatchSuccess()

	c.log.Info("classifier batch served",
		logger.Int("symbols", len(symbols)),
		logger.Int("picks", len(resp.Data)),
		logger.Duration("elapsed", time.Since(started)))
	return resp.Data, nil
}

// Health probes the agent's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var resp healthResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/health",
	}, &resp)
	if err != nil {
		return fmt.Errorf("classifier health: %w", err)
	}
	if resp.Agent == "" {
		return fmt.Errorf("classifier health: empty agent status")
	}
	return nil
}

// Metrics returns a snapshot of the call counters.
func (c *Client) Metrics() models.AgentMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// recordAttempt counts every wire attempt, including retries. Failures are
// only tallied once per batch, in recordBatchFailure.
func (c *Client) recordAttempt(ok bool, elapsed time.Duration) {
	c.metrics.RecordAgentCall(ok, elapsed)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalCalls++
	c.stats.TotalDurationMs += elapsed.Milliseconds()
	c.stats.AvgDurationMs = float64(c.stats.TotalDurationMs) / float64(c.stats.TotalCalls)
}

func (c *Client) recordBatchSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.LastStatus = "ok"
	c.stats.LastError = ""
	c.stats.LastOkAt = time.Now()
}

func (c *Client) recordBatchFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalFailures++
	c.stats.LastStatus = "error"
	c.stats.LastError = err.Error()
}
