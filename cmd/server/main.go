package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"bgv/internal/checks/adapters/openai"
	checkhandler "bgv/internal/checks/handler"
	"bgv/internal/checks/lock"
	checkmetrics "bgv/internal/checks/metrics"
	checkservice "bgv/internal/checks/service"
	checkstore "bgv/internal/checks/store"
	clienthandler "bgv/internal/clients/handler"
	clientservice "bgv/internal/clients/service"
	clientstore "bgv/internal/clients/store"
	"bgv/internal/comparison"
	"bgv/internal/platform/config"
	"bgv/internal/platform/httpserver"
	"bgv/internal/platform/kafka"
	"bgv/internal/platform/logger"
	"bgv/internal/platform/metrics"
	"bgv/internal/platform/postgres"
	"bgv/internal/platform/redis"
	"bgv/pkg/platform/audit"
	"bgv/pkg/platform/audit/publisher"
	auditkafka "bgv/pkg/platform/audit/store/kafka"
	auditmemory "bgv/pkg/platform/audit/store/memory"
	auditpostgres "bgv/pkg/platform/audit/store/postgres"
	"bgv/pkg/platform/audit/worker"
	"bgv/pkg/platform/circuit"
	"bgv/pkg/platform/httputil"
	"bgv/pkg/platform/middleware/metadata"
	"bgv/pkg/platform/middleware/requesttime"
)

var version = "dev"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// infra holds the optional backing services. Nil fields mean the feature runs
// in memory or is disabled.
type infra struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	in.db = db
	if db != nil && cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			in.close()
			return nil, err
		}
		log.Info("database schema applied")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.close()
		return nil, err
	}
	in.redis = rdb

	kc, err := kafka.New(cfg.Kafka)
	if err != nil {
		in.close()
		return nil, err
	}
	if kc != nil {
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.ActivityTopic, 3); err != nil {
			kc.Close()
			in.close()
			return nil, err
		}
	}
	in.kafka = kc

	log.Info("backing services",
		"postgres", in.db != nil,
		"redis", in.redis != nil,
		"kafka", in.kafka != nil,
	)
	return in, nil
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	in, err := connect(connectCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer in.close()

	thresholds := comparison.DefaultThresholds()
	if cfg.Engine.ThresholdsFile != "" {
		thresholds, err = comparison.LoadThresholds(cfg.Engine.ThresholdsFile)
		if err != nil {
			return err
		}
		log.Info("engine thresholds loaded", "file", cfg.Engine.ThresholdsFile)
	}
	engine := comparison.New(comparison.WithThresholds(thresholds))

	appMetrics := metrics.New(version)
	checkMetrics := checkmetrics.New(prometheus.DefaultRegisterer)

	g, gctx := errgroup.WithContext(ctx)

	// Activity stream: PostgreSQL with an outbox relayed to Kafka, or memory
	// with an optional direct sink.
	var activity *publisher.Publisher
	var sink audit.Sink
	if in.kafka != nil {
		sink = auditkafka.NewSink(in.kafka, cfg.Kafka.ActivityTopic)
	}
	if in.db != nil {
		store := auditpostgres.New(in.db)
		activity = publisher.NewPublisher(store, publisher.WithLogger(log))
		if sink != nil {
			relay := worker.NewWorker(store, sink, cfg.Kafka.RelayInterval, log,
				worker.WithRelayedHook(appMetrics.AddOutboxRelayed))
			g.Go(func() error {
				if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	} else {
		opts := []publisher.Option{publisher.WithLogger(log)}
		if sink != nil {
			opts = append(opts, publisher.WithSink(sink))
		}
		activity = publisher.NewPublisher(auditmemory.NewInMemoryStore(), opts...)
	}
	defer activity.Close()

	var clients *clientservice.Service
	var checkStore checkservice.Store
	if in.db != nil {
		clients, err = clientservice.New(clientstore.NewPostgres(in.db), clientservice.WithLogger(log), clientservice.WithMetrics(appMetrics))
		checkStore = checkstore.NewPostgres(in.db)
	} else {
		clients, err = clientservice.New(clientstore.NewInMemory(), clientservice.WithLogger(log), clientservice.WithMetrics(appMetrics))
		checkStore = checkstore.NewInMemory()
	}
	if err != nil {
		return err
	}

	checkOpts := []checkservice.Option{
		checkservice.WithLogger(log),
		checkservice.WithMetrics(checkMetrics),
		checkservice.WithActivity(activity),
		checkservice.WithFanout(cfg.Engine.CaseFanoutLimit),
	}
	if in.redis != nil {
		checkOpts = append(checkOpts,
			checkservice.WithLocker(lock.NewRedisLocker(in.redis.Client, lock.WithLogger(log))),
			checkservice.WithCache(checkstore.NewResultCache(in.redis.Client, cfg.Redis.ResultTTL)),
		)
	}
	if cfg.AI.APIKey != "" {
		breaker := circuit.New("ai-analysis",
			circuit.WithFailureThreshold(cfg.AI.FailureThreshold),
			circuit.WithCooldown(cfg.AI.Cooldown),
		)
		checkOpts = append(checkOpts,
			checkservice.WithAI(openai.NewClient(cfg.AI.APIKey, cfg.AI.Model), cfg.AI.Timeout),
			checkservice.WithBreaker(breaker),
		)
		log.Info("ai analysis enabled", "model", cfg.AI.Model, "timeout", cfg.AI.Timeout)
	}
	checks, err := checkservice.New(engine, checkStore, clients, checkOpts...)
	if err != nil {
		return err
	}

	router := newRouter(cfg, log, in, clienthandler.New(clients, log), checkhandler.New(checks, log))
	srv := httpserver.New(cfg.Server, router, log)

	g.Go(func() error {
		log.Info("starting bgv", "addr", cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(cfg config.Config, log *slog.Logger, in *infra, handlers ...registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.RequestMetadata)
	r.Use(requesttime.Middleware)
	if len(cfg.Server.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowedHeaders: []string{"Content-Type", metadata.HeaderRequestID, metadata.HeaderActor},
			ExposedHeaders: []string{metadata.HeaderRequestID},
			MaxAge:         300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		status := map[string]string{"status": "ok"}
		healthy := true
		check := func(name string, fn func(context.Context) error) {
			if err := fn(req.Context()); err != nil {
				log.WarnContext(req.Context(), "health check failed", "dependency", name, "error", err)
				status[name] = "down"
				healthy = false
				return
			}
			status[name] = "up"
		}
		if in.db != nil {
			check("postgres", in.db.PingContext)
		}
		if in.redis != nil {
			check("redis", in.redis.Health)
		}
		if in.kafka != nil {
			check("kafka", func(ctx context.Context) error { return kafka.Health(ctx, in.kafka) })
		}
		code := http.StatusOK
		if !healthy {
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	})

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
