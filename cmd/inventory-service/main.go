package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/omiam/omiam-backend/internal/auth/jwt"
	"github.com/omiam/omiam-backend/internal/inventory/cache"
	"github.com/omiam/omiam-backend/internal/inventory/consumers"
	"github.com/omiam/omiam-backend/internal/inventory/events"
	"github.com/omiam/omiam-backend/internal/inventory/handler"
	"github.com/omiam/omiam-backend/internal/inventory/repository"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/internal/notify"
	"github.com/omiam/omiam-backend/pkg/config"
	"github.com/omiam/omiam-backend/pkg/database"
	"github.com/omiam/omiam-backend/pkg/httputil"
	"github.com/omiam/omiam-backend/pkg/logger"
	"github.com/omiam/omiam-backend/pkg/messaging"
)

const requestTimeout = 60 * time.Second

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(handler.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(handler.ServiceName, cfg.Server.Environment).WithLevel(cfg.Log.Level)
	log.Info().Str("storage", cfg.Storage.Driver).Str("cache", cfg.Cache.Driver).Msg("starting Inventory Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open inventory store")
	}
	defer st.close()

	statsCache, err := cache.New(ctx, cfg.Cache, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to cache")
	}

	registry := notify.NewRegistry(cfg.Inventory.NotifyBuffer, log)
	defer registry.Close()

	opts := []service.Option{
		service.WithNotifier(registry),
		service.WithCache(statsCache),
	}
	if st.health != nil {
		opts = append(opts, service.WithDependencyCheck("database", st.health))
	}

	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()
		opts = append(opts, service.WithDependencyCheck("rabbitmq", func(context.Context) map[string]string {
			return rmq.Health()
		}))

		publisher, err := events.NewInventoryEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		opts = append(opts, service.WithPublisher(publisher))
	} else {
		log.Info().Msg("messaging disabled, events will not be published")
	}

	inventoryService := service.NewInventoryService(
		st.items, st.movements, st.acks,
		service.ConfigFrom(cfg),
		log,
		opts...,
	)

	if rmq != nil {
		orderConsumer, err := consumers.NewOrderEventConsumer(rmq, inventoryService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create order event consumer")
		}
		if err := orderConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start order event consumer")
		}
	}

	if cfg.Inventory.AlertSweepInterval > 0 {
		scheduler := service.NewAlertScheduler(inventoryService, cfg.Inventory.AlertSweepInterval, log)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	var auth func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		auth = jwt.Middleware(jwt.NewManager(&cfg.JWT), log)
	} else {
		log.Warn().Msg("authentication disabled, inventory routes are open")
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.New(inventoryService, registry, log, handler.WithRequestTimeout(requestTimeout)).Routes(r, auth)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stops the consumer and the alert sweep
	cancel()
	// Ends open notification streams so Shutdown does not wait on them
	registry.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

type stores struct {
	items     repository.ItemStore
	movements repository.MovementStore
	acks      repository.AcknowledgementStore
	health    service.DependencyCheck
	close     func()
}

// openStores builds the configured store. Postgres applies the schema when
// auto_migrate is set; the memory store can be seeded with demo items.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		mem := repository.NewMemoryStore()
		if cfg.Storage.SeedDemo {
			if err := mem.Seed(ctx, repository.DemoItems(time.Now().UTC())); err != nil {
				return nil, fmt.Errorf("seed demo items: %w", err)
			}
			log.Info().Msg("memory store seeded with demo items")
		}
		return &stores{items: mem, movements: mem, acks: mem.Acknowledgements(), close: func() {}}, nil
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, repository.Schema...); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate inventory schema: %w", err)
		}
		log.Info().Msg("inventory schema applied")
	}

	return &stores{
		items:     repository.NewItemRepository(db),
		movements: repository.NewMovementRepository(db),
		acks:      repository.NewAcknowledgementRepository(db),
		health:    db.Health,
		close:     func() { db.Close() },
	}, nil
}
