package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	appoutbox "estatehub/internal/app/outbox"
	"estatehub/internal/app/middleware"
	"estatehub/internal/app/service"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/property"
	"estatehub/internal/infra/broker/kafka"
	"estatehub/internal/infra/config"
	mongostore "estatehub/internal/infra/db/mongo"
	ginserver "estatehub/internal/infra/http/gin"
	"estatehub/internal/infra/obs"
	"estatehub/internal/infra/outbox"
	"estatehub/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := obs.NewLogger(cfg.Env, level)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("estatehub stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("estatehub stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	metrics := obs.NewMetrics("estatehub")

	producer, closeProducer, err := buildProducer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeProducer()
	publisher := outbox.Publisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix, Source: cfg.EventSource}

	app, err := buildStorage(ctx, cfg, logger, publisher, metrics)
	if err != nil {
		return err
	}
	defer app.close()

	if err := loadPropertyFixtures(ctx, app.properties, fixturesPath(cfg), logger); err != nil {
		logger.Warn("property fixtures load failed", "error", err)
	}

	svc := service.New(service.Options{
		UoWFactory:     app.factory,
		Outbox:         app.outbox,
		Idempotency:    app.idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Observer:       metrics,
		Logger:         logger,
	})

	obsMW := obs.Middleware{Logger: logger, Metrics: metrics}
	server := ginserver.NewServer(cfg, obsMW, obs.HealthHandlers{Checks: app.checks}, ginserver.Handlers{
		Property:    ginserver.PropertyHandler{Queries: svc.Queries, Logger: logger},
		Reservation: ginserver.ReservationHandler{Commands: svc.Commands, Queries: svc.Queries, Logger: logger},
		Metrics:     metrics.Handler(),
	})

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "kafka", cfg.KafkaEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

type application struct {
	factory     uow.UoWFactory
	properties  property.Repository
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	worker      *outbox.Worker
	checks      map[string]obs.Check
	close       func()
}

func buildProducer(cfg config.Config, logger *slog.Logger) (outbox.Producer, func(), error) {
	if !cfg.KafkaEnabled() {
		logger.Info("no kafka brokers configured, events are logged only")
		return outbox.LogProducer{Logger: logger}, func() {}, nil
	}
	p, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.KafkaBrokers, ClientID: cfg.KafkaClientID})
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Error("kafka producer close failed", "error", err)
		}
	}, nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, publisher outbox.Publisher, metrics *obs.Metrics) (application, error) {
	if cfg.StorageDriver == config.DriverMongo {
		return buildMongo(ctx, cfg, logger, publisher, metrics)
	}
	props := memory.NewPropertyRepository()
	box := memory.NewOutbox(observedRelay{relay: publisher, observer: metrics})
	return application{
		factory:     memory.Factory{PropertiesRepo: props, ReservationsRepo: memory.NewReservationRepository(), Outbox: box},
		properties:  props,
		outbox:      box,
		idempotency: memory.NewIdempotencyStore(),
		checks:      map[string]obs.Check{},
		close:       func() {},
	}, nil
}

func buildMongo(ctx context.Context, cfg config.Config, logger *slog.Logger, publisher outbox.Publisher, metrics *obs.Metrics) (application, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return application{}, err
	}
	closeClient := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Error("mongo disconnect failed", "error", err)
		}
	}
	fail := func(err error) (application, error) {
		closeClient()
		return application{}, err
	}

	reservations, err := mongostore.NewReservationRepository(ctx, client.DB)
	if err != nil {
		return fail(err)
	}
	store, err := outbox.NewStore(ctx, client.DB)
	if err != nil {
		return fail(err)
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB)
	if err != nil {
		return fail(err)
	}
	props := mongostore.NewPropertyRepository(client.DB)

	return application{
		factory: mongostore.Factory{
			DB:               client.DB,
			PropertiesRepo:   props,
			ReservationsRepo: reservations,
			Outbox:           store,
		},
		properties:  props,
		outbox:      store,
		idempotency: idem,
		worker: &outbox.Worker{
			Store:     store,
			Publisher: publisher,
			Interval:  cfg.OutboxPollInterval,
			Backoff:   cfg.RetryBackoff,
			Logger:    logger,
			Observer:  metrics,
		},
		checks: map[string]obs.Check{"mongo": client.Ping},
		close:  closeClient,
	}, nil
}

// observedRelay reports in-process relays the way the Mongo worker does.
type observedRelay struct {
	relay    memory.Relay
	observer outbox.RelayObserver
}

func (r observedRelay) Relay(ctx context.Context, rec appoutbox.EventRecord) error {
	err := r.relay.Relay(ctx, rec)
	r.observer.ObserveRelay(rec.Name, err)
	return err
}

type propertyFixture struct {
	ID            string `json:"id"`
	Host          string `json:"host"`
	Title         string `json:"title"`
	City          string `json:"city"`
	Country       string `json:"country"`
	PricePerNight string `json:"price_per_night"`
	Currency      string `json:"currency"`
	Active        bool   `json:"active"`
}

func loadPropertyFixtures(ctx context.Context, repo property.Repository, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		rate, err := decimal.NewFromString(fx.PricePerNight)
		if err != nil {
			logger.Error("fixture rate invalid", "property_id", fx.ID, "error", err)
			continue
		}
		p, err := property.New(property.CreateParams{
			ID:            property.ID(fx.ID),
			Host:          property.HostID(fx.Host),
			Title:         fx.Title,
			City:          fx.City,
			Country:       fx.Country,
			PricePerNight: rate,
			Currency:      fx.Currency,
			Active:        fx.Active,
			Now:           now,
		})
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		if existing, err := repo.ByID(ctx, p.ID); err == nil {
			p.Version = existing.Version
			p.CreatedAt = existing.CreatedAt
		}
		if err := repo.Save(ctx, p); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", p.ID)
	}
	return nil
}

func fixturesPath(cfg config.Config) string {
	if cfg.PropertyFixtures != "" {
		return cfg.PropertyFixtures
	}
	candidates := []string{
		filepath.Join("data", "properties.json"),
		filepath.Join("..", "..", "data", "properties.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
