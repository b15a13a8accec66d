package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TrendPulse/internal/service/session"
	"TrendPulse/internal/service/stream"
	"TrendPulse/pkg/cache"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	pkgkafka "TrendPulse/pkg/kafka"
	applogger "TrendPulse/pkg/logger"
)

// App encapsulates the application lifecycle: the orchestrator loop, the
// optional trade stream, and the HTTP surface.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	orch         *session.Orchestrator
	streamClient *stream.Client
	store        *cache.Failover
	producer     *pkgkafka.Producer
	chClient     *pkgch.Client
	handler      xhttp.Handler
	httpServer   *xhttp.Server
}

// New creates an App with all dependencies. streamClient, producer, and
// chClient may be nil when their features are disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	orch *session.Orchestrator,
	streamClient *stream.Client,
	store *cache.Failover,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:          cfg,
		log:          log,
		orch:         orch,
		streamClient: streamClient,
		store:        store,
		producer:     producer,
		chClient:     chClient,
		handler:      handler,
	}
}

// Run starts all components and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	go a.orch.Run(ctx)
	a.log.Info("orchestrator started",
		applogger.Duration("refresh", a.cfg.Market.RefreshInterval),
		applogger.String("timezone", a.cfg.Market.Timezone))

	if a.streamClient != nil {
		go a.streamClient.Run(ctx)
		a.log.Info("trade stream started", applogger.String("url", a.cfg.Stream.WebSocketURL))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops components in reverse start order.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	a.store.Close()
	a.log.RemoveCollector()

	a.log.Info("shutdown complete")
	return nil
}
