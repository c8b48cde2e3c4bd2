package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"herald/internal/audit"
	"herald/internal/dlq"
	"herald/internal/event"
	"herald/internal/fanout"
	"herald/internal/idempotency"
	"herald/internal/notify"
	notifystore "herald/internal/notify/store"
	"herald/internal/platform/config"
	"herald/internal/platform/httpserver"
	"herald/internal/platform/kafka"
	"herald/internal/platform/logger"
	"herald/internal/platform/postgres"
	platformredis "herald/internal/platform/redis"
	"herald/internal/source"
	httptransport "herald/internal/transport/http"
)

// main wires the pipeline: stores, dedup/rate tiers, fanout, dead-letter
// sink, the two event consumers, and the ingress surface. Components not
// configured (no Redis, no Postgres, no Kafka) fall back to their in-memory
// implementations so a bare `go run` still works end to end.
func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("herald exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	var (
		idemStore  idempotency.Store
		realtime   fanout.Fanout
		notifStore notifystore.NotificationStore
		auditStore audit.Store
		sink       dlq.Sink
	)

	if redisClient != nil {
		idemStore = idempotency.NewRedis(redisClient.Client)
		realtime = fanout.NewRedis(redisClient.Client)
	} else {
		log.Warn("redis not configured, using in-memory idempotency store and fanout hub")
		idemStore = idempotency.NewInMemory()
		realtime = fanout.NewInMemoryHub()
	}

	if db != nil {
		notifStore = notifystore.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	} else {
		log.Warn("postgres not configured, using in-memory record stores")
		notifStore = notifystore.NewInMemory()
		auditStore = audit.NewInMemory()
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := kafka.EnsureTopics(ctx, producer, cfg.Kafka); err != nil {
			return err
		}
		sink = dlq.NewKafka(producer, cfg.Kafka.DLQTopic, log)
	} else {
		log.Warn("kafka not configured, dead letters stay in memory")
		sink = dlq.NewInMemory()
	}

	dispatcher, err := notify.NewDispatcher(notifStore, idemStore, realtime, sink,
		notify.WithLogger(log),
		notify.WithDedupTTL(cfg.DedupTTL),
		notify.WithRateLimit(cfg.RateLimit, cfg.RateWindow),
	)
	if err != nil {
		return err
	}
	recorder, err := audit.NewRecorder(auditStore, audit.WithLogger(log))
	if err != nil {
		return err
	}

	bus := event.NewBus(log)
	bus.Subscribe(recorder)
	bus.Subscribe(dispatcher)

	handler := httptransport.NewHandler(bus, notifStore, log, healthChecks(redisClient, db))
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting herald", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.Kafka.Seeds) > 0 {
		consumerClient, err := kafka.NewConsumer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer consumerClient.Close()

		consumer := source.New(consumerClient, recorder, dispatcher, log)
		group.Go(func() error {
			log.Info("consuming events", "topic", cfg.Kafka.EventsTopic, "group", cfg.Kafka.ConsumerGroup)
			return consumer.Run(groupCtx)
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		bus.Wait()
		return nil
	})

	return group.Wait()
}

func healthChecks(redisClient *platformredis.Client, db *sql.DB) map[string]httptransport.HealthCheck {
	checks := make(map[string]httptransport.HealthCheck)
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	return checks
}
