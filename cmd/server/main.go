package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"securelife/internal/installment"
	installmenthandler "securelife/internal/installment/handler"
	jwttoken "securelife/internal/jwt_token"
	"securelife/internal/ledger"
	ledgermemory "securelife/internal/ledger/store/memory"
	ledgerpostgres "securelife/internal/ledger/store/postgres"
	"securelife/internal/payment"
	"securelife/internal/payment/gateway"
	paymenthandler "securelife/internal/payment/handler"
	"securelife/internal/platform/config"
	"securelife/internal/platform/httpserver"
	"securelife/internal/platform/logger"
	"securelife/internal/platform/metrics"
	"securelife/internal/platform/middleware"
	platformredis "securelife/internal/platform/redis"
	"securelife/internal/policy"
	policyhandler "securelife/internal/policy/handler"
	policyservice "securelife/internal/policy/service"
	"securelife/internal/quote"
	quotehandler "securelife/internal/quote/handler"
	quoteservice "securelife/internal/quote/service"
	quotememory "securelife/internal/quote/store/memory"
	quoteredis "securelife/internal/quote/store/redis"
	"securelife/internal/tax"
	audit "securelife/pkg/platform/audit"
	"securelife/pkg/platform/audit/publisher"
	"securelife/pkg/platform/audit/sink"
	auditmemory "securelife/pkg/platform/audit/store/memory"
	auditpostgres "securelife/pkg/platform/audit/store/postgres"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ledger store: Postgres when configured, in-memory otherwise.
	var pool *pgxpool.Pool
	var ledgerStore ledger.Store = ledgermemory.New()
	if cfg.Postgres.DSN != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		pg := ledgerpostgres.New(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("ledger schema setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		ledgerStore = pg
		log.Info("ledger store: postgres")
	} else {
		log.Warn("DATABASE_URL not set, ledger is in-memory and not durable")
	}

	// Quote store: Redis when configured, in-memory otherwise.
	var quoteStore quote.Store = quotememory.NewStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		quoteStore = quoteredis.NewStore(redisClient.Client)
		log.Info("quote store: redis")
	}

	// Audit pipeline: Kafka when configured, else Postgres, else in-memory.
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	switch {
	case len(cfg.Kafka.Brokers) > 0:
		kafkaSink, err := sink.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka sink setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditStore = kafkaSink
		log.Info("audit sink: kafka", slog.String("topic", cfg.Kafka.AuditTopic))
	case pool != nil:
		pgAudit := auditpostgres.New(pool)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			log.Error("audit schema setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		auditStore = pgAudit
		log.Info("audit sink: postgres")
	}
	auditor := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
	defer auditor.Close()

	// External collaborators.
	policyClient, err := policy.NewClient(cfg.Collaborators.PolicyBaseURL)
	if err != nil {
		log.Error("policy client setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	taxClient, err := tax.NewClient(cfg.Collaborators.TaxBaseURL)
	if err != nil {
		log.Error("tax client setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	gatewayClient, err := gateway.NewClient(cfg.Collaborators.GatewayBaseURL)
	if err != nil {
		log.Error("gateway client setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Services.
	quoteSvc := quoteservice.NewService(policyClient, taxClient, quoteStore, cfg.QuoteTTL, log,
		quoteservice.WithMetrics(m), quoteservice.WithAuditor(auditor))
	paymentSvc := payment.NewService(policyClient, policyClient, ledgerStore, quoteStore, gatewayClient, log,
		payment.WithMetrics(m), payment.WithAuditor(auditor))
	viewSvc := installment.NewService(policyClient, ledgerStore, log)
	lifecycleSvc := policyservice.NewService(policyClient, policyClient, log,
		policyservice.WithAuditor(auditor))

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "securelife", "securelife-api")
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwtService)

	// Router. Policyholder routes require a bearer token; the gateway
	// webhook authenticates with its HMAC signature instead.
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metadata)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	paymentHandler := paymenthandler.New(paymentSvc, cfg.GatewayWebhookSecret, log)
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		paymentHandler.RegisterWebhook(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtValidator, log))
		installmenthandler.New(viewSvc, log).Register(r)
		quotehandler.New(quoteSvc, log).Register(r)
		policyhandler.New(lifecycleSvc, log).Register(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			paymentHandler.Register(r)
		})
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("starting securelife payments", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
