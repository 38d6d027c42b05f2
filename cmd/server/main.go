package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"fedevents/internal/audit"
	eventstore "fedevents/internal/event"
	eventservice "fedevents/internal/event/service"
	"fedevents/internal/match"
	"fedevents/internal/news"
	"fedevents/internal/notification"
	"fedevents/internal/platform/cache"
	"fedevents/internal/platform/config"
	"fedevents/internal/platform/httpserver"
	"fedevents/internal/platform/logger"
	"fedevents/internal/platform/metrics"
	platformredis "fedevents/internal/platform/redis"
	"fedevents/internal/registration"
	httptransport "fedevents/internal/transport/http"
)

// main wires stores, services and transport, then runs the HTTP server and
// the audit worker until a signal arrives. Business logic lives in the
// internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	m := metrics.New()

	// Cache: Redis when configured, in-process otherwise.
	var store cache.Cache = cache.NewMemory(cfg.CacheTTL)
	var redisClient *platformredis.Client
	if cfg.Redis.URL != "" {
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis unavailable, falling back to memory cache", "error", err)
		} else {
			redisClient = client
			store = cache.NewRedis(client, cfg.CacheTTL)
			defer redisClient.Close()
		}
	}

	// Events, notification ledger and audit trail: Postgres when a DSN is
	// configured, in-process stores otherwise.
	var eventStore eventservice.Store = eventstore.NewInMemoryStore()
	var notificationStore notification.Store = notification.NewInMemoryStore()
	var auditStore audit.Store = audit.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed, using memory stores", "error", err)
		} else {
			defer db.Close()
			eventStore = eventstore.NewPostgresStore(db)
			notificationStore = notification.NewPostgresStore(db)
			auditStore = audit.NewPostgresStore(db)
		}
	}

	auditInbox := make(chan audit.Event, 256)
	trail := audit.NewPublisher(auditInbox)
	worker := audit.NewWorker(auditStore, auditInbox, log)

	notifications := notification.NewService(notificationStore, m)

	events := eventservice.NewService(eventStore, store, m, trail, notifications, log)

	catalog := registration.NewCatalog(
		registration.DocumentType{Name: "Documento de identidad", Required: true},
		registration.DocumentType{Name: "Certificado médico", Required: true},
		registration.DocumentType{Name: "Autorización del acudiente", Required: true},
		registration.DocumentType{Name: "Carné estudiantil", Required: false},
	)
	studentStore := registration.NewStudentInMemoryStore()
	registrations := registration.NewService(
		registration.NewInMemoryStore(), studentStore, eventStore, catalog,
		store, m, trail, notifications, log,
	)
	students := registration.NewDirectory(studentStore, log)

	newsService := news.NewService(news.NewInMemoryStore())
	matches := match.NewService(match.NewInMemoryStore(), eventStore, newsService, m, trail, notifications, log)

	handler := httptransport.NewHandler(events, registrations, matches, notifications, students, newsService, log)
	health := func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
	router := httptransport.NewRouter(handler, m, log, health)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fedevents", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
