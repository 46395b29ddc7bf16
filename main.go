package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/config"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/jobs"
	"github.com/junaidrashid-git/storefront-api/metrics"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/routes"
	"github.com/junaidrashid-git/storefront-api/services/account"
	"github.com/junaidrashid-git/storefront-api/services/billing"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/store"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	kafkaQueueSize  = 256
)

// backend is a store that can also report whether it is reachable.
type backend interface {
	store.Store
	Ping(ctx context.Context) error
}

func main() {
	log.Println("✅ Starting application...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ DB connection failed: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("❌ Failed to close store: %v", err)
		}
	}()

	accounts := account.New(db, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL))
	if cfg.SeedAdmin() {
		created, err := accounts.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail)
		if err != nil {
			log.Fatalf("❌ Failed to seed admin: %v", err)
		}
		if created {
			log.Printf("✅ Admin %q created", cfg.AdminUsername)
		}
	}

	m := metrics.NewServerMetrics()
	hub := events.NewHub()
	defer hub.Close()

	publishers := events.Fanout{hub, m}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		queue := events.NewQueue("kafka_publish", kafka, kafkaQueueSize)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := queue.Close(ctx); err != nil {
				log.Printf("❌ Kafka queue not drained: %v", err)
			}
			if err := kafka.Close(); err != nil {
				log.Printf("❌ Failed to close kafka writer: %v", err)
			}
		}()
		publishers = append(publishers, queue)
		log.Printf("📣 Publishing bill events to %s", cfg.KafkaTopic)
	}

	catalogSvc := catalog.New(db)
	billingSvc := billing.New(db, publishers)

	scheduler, err := jobs.Schedule(&jobs.Reporter{
		Catalog:           catalogSvc,
		Billing:           billingSvc,
		Metrics:           m,
		LowStockThreshold: cfg.LowStockThreshold,
		PendingBillAge:    cfg.PendingBillAge,
	}, cfg.LowStockSpec, cfg.PendingBillsSpec)
	if err != nil {
		log.Fatalf("❌ Invalid job schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := routes.New(routes.Services{
		Accounts: accounts,
		Catalog:  catalogSvc,
		Carts:    cart.New(db),
		Billing:  billingSvc,
		Hub:      hub,
		Metrics:  m,
		Limiter:  middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Ping:     db.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Server running on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// websocket connections are hijacked and not tracked by Shutdown
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("❌ Server stopped: %v", err)
	}
}

// openStore connects to the configured backend and makes sure its schema is in place.
func openStore(ctx context.Context, cfg config.Config) (backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s, err := store.OpenMongo(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(connectCtx); err != nil {
			_ = s.Close()
			return nil, err
		}
		log.Printf("✅ Connected to MongoDB database %s", cfg.MongoDB)
		return s, nil

	case config.DriverPostgres, config.DriverSQLite:
		var (
			s   *store.GormStore
			err error
		)
		if cfg.StoreDriver == config.DriverSQLite {
			s, err = store.OpenSQLite(cfg.SQLitePath)
		} else {
			s, err = store.OpenPostgres(cfg.DatabaseURL)
		}
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("AutoMigrate failed: %w", err)
		}
		log.Printf("✅ Connected to %s", cfg.StoreDriver)
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
