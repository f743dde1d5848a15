// Package components wires every application dependency into one Container:
// config, logger, persistence, event publishing, router, assembled once at
// startup and handed to cmd/api/main.go as a singleton.
package components

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ledger-api/internal/api/handlers"
	"ledger-api/internal/api/routes"
	"ledger-api/internal/config"
	"ledger-api/internal/infrastructure/events"
	"ledger-api/internal/infrastructure/messaging"
	"ledger-api/internal/infrastructure/messaging/kafka"
	"ledger-api/internal/infrastructure/persistence/memory"
	"ledger-api/internal/infrastructure/persistence/postgres"
	"ledger-api/internal/ledger"
	"ledger-api/internal/ledger/bookguard"
	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"
	"ledger-api/internal/ledger/ports"
	"ledger-api/internal/ledger/rates"
	"ledger-api/internal/pkg/logging"
	"ledger-api/internal/pkg/telemetry"

	"github.com/gin-gonic/gin"
)

// Container holds every application component and satisfies
// handlers.HandlerDependencies so routes.RegisterRoutes can wire handlers
// against it directly.
type Container struct {
	Config              *config.Config
	Logger              *logging.Logger
	Currencies          *currency.Registry
	rawStore            ports.Store
	Store               ports.Store
	Engine              *ledger.Engine
	BookGuard           *bookguard.Registry
	RateProvider        *rates.StaticRateProvider
	EventBroker         *events.Broker
	EventPublisher      messaging.EventPublisher
	TransactionConsumer *messaging.TransactionConsumer
	Router              *gin.Engine
	Server              *http.Server
}

var (
	instance     *Container
	instanceOnce sync.Once
	instanceErr  error
)

// GetInstance returns the singleton container, initializing it on first call.
func GetInstance() (*Container, error) {
	instanceOnce.Do(func() {
		instance, instanceErr = newContainer()
	})
	return instance, instanceErr
}

// New is an alias for GetInstance kept for call-site readability in main.go.
func New() (*Container, error) {
	return GetInstance()
}

func newContainer() (*Container, error) {
	container := &Container{}

	if err := container.initConfig(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := container.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := container.initPersistence(); err != nil {
		return nil, fmt.Errorf("failed to initialize persistence: %w", err)
	}
	if err := container.initLedger(); err != nil {
		return nil, fmt.Errorf("failed to initialize ledger engine: %w", err)
	}
	if err := container.initEventBroker(); err != nil {
		return nil, fmt.Errorf("failed to initialize event broker: %w", err)
	}
	if err := container.initEventPublisher(); err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	if err := container.initTransactionConsumer(); err != nil {
		return nil, fmt.Errorf("failed to initialize transaction consumer: %w", err)
	}
	if err := container.initServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	logging.Info("All components initialized successfully", nil)
	return container, nil
}

func (c *Container) initConfig() error {
	c.Config = config.Load()
	return nil
}

func (c *Container) initLogger() error {
	logging.Init(c.Config)
	c.Logger = &logging.Logger{}

	logging.Info("Logger initialized", map[string]interface{}{
		"level": c.Config.Logging.Level,
	})
	return nil
}

// initPersistence chooses between the postgres store and the in-memory
// store based on PERSISTENCE_DRIVER (default "memory"; postgres requires a
// reachable database and is opt-in for local/dev runs).
func (c *Container) initPersistence() error {
	c.Currencies = currency.Default()

	driver := os.Getenv("PERSISTENCE_DRIVER")
	if driver == "postgres" {
		store, err := postgres.New(context.Background(), c.Config.Postgres, c.Currencies)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		c.rawStore = store
		c.Store = store
		logging.Info("Persistence initialized", map[string]interface{}{"driver": "postgres"})
		return nil
	}

	memStore := memory.New()
	c.rawStore = memStore
	c.Store = memStore
	logging.Info("Persistence initialized", map[string]interface{}{"driver": "memory"})
	return nil
}

// timedRateProvider reports rate-provider latency to telemetry; the kernel
// itself stays metrics-free.
type timedRateProvider struct {
	inner models.ExchangeRateProvider
}

func (p timedRateProvider) GetExchangeRate(from, to currency.Currency) (money.Amount, error) {
	start := time.Now()
	rate, err := p.inner.GetExchangeRate(from, to)
	telemetry.RecordExchangeRateLatency(time.Since(start))
	return rate, err
}

// initLedger builds the kernel Engine, the per-book bookguard registry, and
// the dev/demo StaticRateProvider, then wraps Store so every profile it
// returns carries that provider (RateProvider is runtime-only, never
// persisted; see rates.WithDefaultRateProvider).
func (c *Container) initLedger() error {
	c.RateProvider = rates.NewStaticRateProvider()
	c.Store = rates.WithDefaultRateProvider(c.Store, timedRateProvider{inner: c.RateProvider})
	c.Engine = ledger.New(c.Store, c.Currencies)
	c.BookGuard = bookguard.NewRegistry()
	return nil
}

func (c *Container) initEventBroker() error {
	c.EventBroker = events.GetBroker()
	logging.Info("Event broker initialized", nil)
	return nil
}

func (c *Container) initEventPublisher() error {
	if os.Getenv("KAFKA_ENABLED") == "false" {
		logging.Info("Kafka disabled, using no-op event publisher", nil)
		c.EventPublisher = messaging.NewNoOpEventPublisher()
		return nil
	}

	kafkaConfig := kafka.NewConfigFromEnv()
	publisher, err := messaging.NewKafkaEventPublisher(kafkaConfig)
	if err != nil {
		logging.Warn("Failed to initialize Kafka, using no-op event publisher", map[string]interface{}{
			"error": err.Error(),
		})
		c.EventPublisher = messaging.NewNoOpEventPublisher()
		return nil
	}

	c.EventPublisher = publisher
	logging.Info("Kafka event publisher initialized", map[string]interface{}{
		"brokers": kafkaConfig.Brokers,
	})
	return nil
}

// initTransactionConsumer starts the consumer-group worker that posts
// queued transaction requests through the kernel. Skipped under the same
// KAFKA_ENABLED=false flag as the publisher.
func (c *Container) initTransactionConsumer() error {
	if os.Getenv("KAFKA_ENABLED") == "false" {
		return nil
	}

	kafkaConfig := kafka.NewConfigFromEnv()
	consumer, err := messaging.NewTransactionConsumer(kafkaConfig, c.EventPublisher, c.Engine, c.Store)
	if err != nil {
		logging.Warn("Failed to initialize transaction consumer, requests will only be accepted over HTTP", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if err := consumer.Start(); err != nil {
		logging.Warn("Failed to start transaction consumer", map[string]interface{}{"error": err.Error()})
		return nil
	}

	c.TransactionConsumer = consumer
	logging.Info("Transaction consumer started", nil)
	return nil
}

func (c *Container) initServer() error {
	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	c.Router = gin.Default()
	routes.RegisterRoutes(c.Router, c, c.Config)

	c.Server = &http.Server{
		Addr:           ":" + c.Config.Server.Port,
		Handler:        c.Router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	logging.Info("HTTP server configured", map[string]interface{}{
		"port": c.Config.Server.Port,
	})
	return nil
}

// Start begins serving HTTP requests and blocks until a shutdown signal
// arrives.
func (c *Container) Start() error {
	logging.Info("Starting HTTP server", map[string]interface{}{
		"address": c.Server.Addr,
	})

	go func() {
		if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Server failed to start", err, nil)
			os.Exit(1)
		}
	}()

	c.waitForShutdown()
	return nil
}

func (c *Container) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", err, nil)
	}

	logging.Info("Server shutdown complete", nil)
}

// Shutdown gracefully stops every component that owns a live connection.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if c.TransactionConsumer != nil {
		if err := c.TransactionConsumer.Stop(); err != nil {
			logging.Error("Failed to stop transaction consumer", err, nil)
		}
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			logging.Error("Failed to close event publisher", err, nil)
		}
	}

	if closer, ok := c.rawStore.(interface{ Close() }); ok {
		closer.Close()
	}

	return nil
}

// GetEngine implements handlers.HandlerDependencies.
func (c *Container) GetEngine() *ledger.Engine { return c.Engine }

// GetStore implements handlers.HandlerDependencies.
func (c *Container) GetStore() ports.Store { return c.Store }

// GetBookGuard implements handlers.HandlerDependencies.
func (c *Container) GetBookGuard() *bookguard.Registry { return c.BookGuard }

// GetEventPublisher implements handlers.HandlerDependencies.
func (c *Container) GetEventPublisher() messaging.EventPublisher { return c.EventPublisher }

// GetConfig returns the loaded configuration.
func (c *Container) GetConfig() *config.Config { return c.Config }

// GetRouter returns the Gin router.
func (c *Container) GetRouter() *gin.Engine { return c.Router }

// GetEventBroker returns the SSE broker powering /events.
func (c *Container) GetEventBroker() *events.Broker { return c.EventBroker }

var _ handlers.HandlerDependencies = (*Container)(nil)
