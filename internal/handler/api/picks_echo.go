package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/service/session"
	xhttp "TrendPulse/pkg/http"
	xlogger "TrendPulse/pkg/logger"
)

// PicksEchoHandler exposes the pipeline over HTTP.
type PicksEchoHandler struct {
	logger     *xlogger.Logger
	orch       *session.Orchestrator
	snapshots  domrepo.Snapshots
	news       domrepo.News
	classifier domrepo.Classifier
	degraded   func() bool
}

func NewPicksEchoHandler(
	logger *xlogger.Logger,
	orch *session.Orchestrator,
	snapshots domrepo.Snapshots,
	news domrepo.News,
	classifier domrepo.Classifier,
	degraded func() bool,
) *PicksEchoHandler {
	return &PicksEchoHandler{
		logger:     logger,
		orch:       orch,
		snapshots:  snapshots,
		news:       news,
		classifier: classifier,
		degraded:   degraded,
	}
}

func (h *PicksEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api")
	g.GET("/picks", h.Picks)
	g.GET("/snapshot", h.Snapshot)
	g.GET("/snapshot/previous", h.PreviousSnapshot)
	g.GET("/news/:symbol", h.News)
	g.GET("/agent/health", h.AgentHealth)
	g.GET("/agent/metrics", h.AgentMetrics)
}

func (h *PicksEchoHandler) Picks(c echo.Context) error {
	req := &models.PicksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ps := h.orch.Picks(c.Request().Context())
	if ps == nil {
		return xhttp.SuccessResponse(c, &models.SessionPickSet{Results: []models.Recommendation{}})
	}

	results := ps.Results
	if req.Label != "" {
		label := models.PickLabel(req.Label)
		filtered := make([]models.Recommendation, 0, len(results))
		for _, rec := range results {
			if rec.SentimentLabel == label {
				filtered = append(filtered, rec)
			}
		}
		results = filtered
	}
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	if results == nil {
		results = []models.Recommendation{}
	}

	return xhttp.SuccessResponse(c, &models.SessionPickSet{
		SessionDate: ps.SessionDate,
		AsOf:        ps.AsOf,
		Results:     results,
	})
}

func (h *PicksEchoHandler) Snapshot(c echo.Context) error {
	quotes := h.snapshots.Snapshot(c.Request().Context())
	return xhttp.SuccessResponse(c, quotes)
}

func (h *PicksEchoHandler) PreviousSnapshot(c echo.Context) error {
	quotes := h.snapshots.PreviousSessionSnapshot(c.Request().Context())
	if quotes == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no previous session data available"))
	}
	return xhttp.SuccessResponse(c, quotes)
}

func (h *PicksEchoHandler) News(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbol is required"))
	}
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	articles := h.news.NewsForSymbol(c.Request().Context(), symbol)
	if len(articles) > req.Limit {
		articles = articles[:req.Limit]
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return xhttp.ListResponse(c, articles, int64(len(articles)))
}

func (h *PicksEchoHandler) AgentHealth(c echo.Context) error {
	status := map[string]interface{}{
		"enabled":        h.classifier.Enabled(),
		"cache_degraded": h.degraded(),
	}
	if !h.classifier.Enabled() {
		status["agent"] = "disabled"
		return xhttp.SuccessResponse(c, status)
	}
	if err := h.classifier.Health(c.Request().Context()); err != nil {
		h.logger.Warn("agent health probe failed", xlogger.Error(err))
		status["agent"] = "unreachable"
	} else {
		status["agent"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *PicksEchoHandler) AgentMetrics(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.classifier.Metrics())
}

func (h *PicksEchoHandler) Healthz(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
