package di

import (
	"context"
	"fmt"
	"time"

	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/handler/api"
	internalrepo "TrendPulse/internal/repository"
	"TrendPulse/internal/service/classifier"
	"TrendPulse/internal/service/marketdata"
	"TrendPulse/internal/service/news"
	"TrendPulse/internal/service/sentiment"
	"TrendPulse/internal/service/session"
	"TrendPulse/internal/service/stream"
	"TrendPulse/pkg/cache"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	pkgkafka "TrendPulse/pkg/kafka"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
	"TrendPulse/pkg/server"
)

// ProvideLogger creates the application logger. Development gets console
// output, everything else JSON.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	level := "info"
	if cfg.Environment == "development" {
		format = "console"
		level = "debug"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Market.SymbolTimeout + 5*time.Second))
}

// ProvideCache wires the failover store: Redis remote when enabled, always
// an in-process fallback.
func ProvideCache(cfg *config.Config, m drepo.Metrics, log *logger.Logger) *cache.Failover {
	local := cache.NewMemory()

	var remote *cache.Redis
	if cfg.Cache.Redis.Enabled {
		remote = cache.NewRedis(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
	}

	onChange := func(degraded bool) {
		m.SetCacheDegraded(degraded)
		if degraded {
			log.Warn("cache degraded to in-process store")
		} else {
			log.Info("cache recovered to remote store")
		}
	}
	if remote == nil {
		return cache.NewFailover(nil, local, cfg.Cache.ProbeInterval, onChange)
	}
	return cache.NewFailover(remote, local, cfg.Cache.ProbeInterval, onChange)
}

// ProvideKafkaProducer creates the Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePickPublisher creates the pick-set publisher, or nil when Kafka
// is disabled.
func ProvidePickPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.PickPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPickPublisher(producer, cfg.Kafka.Topic)
}

// ProvideClickHouseClient creates the ClickHouse client with the pick
// history schema applied, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, 10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.PickHistorySchema(cfg.ClickHouse.Database, "picks")); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePickHistory creates the pick history store, or nil when
// ClickHouse is disabled.
func ProvidePickHistory(chClient *pkgch.Client, cfg *config.Config) drepo.PickHistory {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHousePickHistory(chClient.DB(), cfg.ClickHouse.Database+".picks")
}

// ProvideOverlay creates the last-trade overlay. It exists even when the
// stream is disabled; it just never receives trades then.
func ProvideOverlay(cfg *config.Config) *stream.Overlay {
	return stream.NewOverlay(cfg.Market.SnapshotMaxAge)
}

// ProvideStreamClient creates the trade stream client, or nil when the
// stream is disabled or unkeyed.
func ProvideStreamClient(cfg *config.Config, overlay *stream.Overlay, log *logger.Logger) *stream.Client {
	if !cfg.Stream.Enabled || cfg.Stream.APIKey == "" {
		return nil
	}
	return stream.NewClient(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		marketdata.NewUniverseResolver(nil, "", log).Resolve(context.Background()),
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		overlay,
		log,
	)
}

// ProvideSnapshots creates the market snapshot fetcher.
func ProvideSnapshots(cfg *config.Config, client *xhttp.Client, overlay *stream.Overlay, m drepo.Metrics, log *logger.Logger) drepo.Snapshots {
	return marketdata.NewFetcher(cfg, client, overlay, m, log)
}

// ProvideNews creates the news aggregator on top of the failover cache.
func ProvideNews(cfg *config.Config, client *xhttp.Client, store *cache.Failover, m drepo.Metrics, log *logger.Logger) drepo.News {
	return news.NewAggregator(cfg, client, store, m, log)
}

// ProvideClassifier creates the external classifier client.
func ProvideClassifier(cfg *config.Config, client *xhttp.Client, m drepo.Metrics, log *logger.Logger) drepo.Classifier {
	return classifier.NewClient(cfg, client, m, log)
}

// ProvideEngine creates the two-tier recommendation engine.
func ProvideEngine(cfg *config.Config, clf drepo.Classifier, m drepo.Metrics, log *logger.Logger) session.Recommender {
	return sentiment.NewEngine(clf, sentiment.OptionsFromConfig(cfg), m, log)
}

// ProvideHours creates the exchange calendar.
func ProvideHours(cfg *config.Config) (*session.Hours, error) {
	return session.NewHours(cfg)
}

// ProvideOrchestrator creates the session orchestrator.
func ProvideOrchestrator(
	cfg *config.Config,
	snapshots drepo.Snapshots,
	newsProvider drepo.News,
	engine session.Recommender,
	store *cache.Failover,
	publisher drepo.PickPublisher,
	history drepo.PickHistory,
	hours *session.Hours,
	m drepo.Metrics,
	log *logger.Logger,
) *session.Orchestrator {
	return session.NewOrchestrator(cfg, snapshots, newsProvider, engine, store, publisher, history, hours, m, log)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	log *logger.Logger,
	orch *session.Orchestrator,
	snapshots drepo.Snapshots,
	newsProvider drepo.News,
	clf drepo.Classifier,
	store *cache.Failover,
) xhttp.Handler {
	return api.NewPicksEchoHandler(log, orch, snapshots, newsProvider, clf, store.Degraded)
}

// kafkaLogSink adapts the producer to the log collector's publisher.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp assembles the application. When Kafka is on, error logs
// aggregate onto a side topic.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	orch *session.Orchestrator,
	streamClient *stream.Client,
	store *cache.Failover,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	if producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      kafkaLogSink{producer: producer},
		})
	}
	return server.New(cfg, log, orch, streamClient, store, producer, chClient, handler)
}
