package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/cache"
	classifieradapter "github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/classifier"
	eventadapter "github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/observability"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	banRetry   *eventadapter.BanRetryWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)
	logger.Info("bootstrapping m37 moderation service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	verifier, err := security.NewJWTVerifier(cfg.JWTPublicKeyPEM)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jwt verifier: %w", err)
	}

	policy, err := domain.NewPolicy(cfg.BannedTerms, cfg.PromoPatterns, cfg.SensitivePatterns)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("compile moderation policy: %w", err)
	}

	directory, err := grpcadapter.NewUserDirectoryClient(cfg.ProfileGRPCURL)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("dial profile service: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.New(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ClassifierTimeout:     cfg.ClassifierTimeout,
			ReportReviewThreshold: cfg.ReportReviewThreshold,
			IdempotencyTTL:        cfg.IdempotencyTTL,
			QueueDefaultLimit:     cfg.QueueDefaultLimit,
			QueueMaxLimit:         cfg.QueueMaxLimit,
			BanRetryDelay:         cfg.BanRetryDelay,
			BanMaxAttempts:        cfg.BanMaxAttempts,
			RecentFlagWindow:      cfg.RecentFlagWindow,
		},
		Policy:       policy,
		Audit:        repos.Audit,
		Reports:      repos.Reports,
		Directory:    directory,
		Classifier:   classifieradapter.NewOpenAIClassifier(cfg.ClassifierAPIKey, cfg.ClassifierBaseURL, cfg.ClassifierModel),
		Restrictions: cacheadapter.NewRedisRestrictionStore(redisClient),
		Outbox:       repos.Outbox,
		BanQueue:     repos.BanExecutions,
		Idempotency:  repos.Idempotency,
		Metrics:      metrics,
	})

	handler := httpadapter.NewHandler(service, verifier, metricsHandler)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewModerationInternalServer(service))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		_ = directory.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	var closers []io.Closer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			"moderation.user.flagged":     cfg.KafkaTopicUserFlagged,
			"moderation.user.banned":      cfg.KafkaTopicUserBanned,
			"moderation.content.rejected": cfg.KafkaTopicContentRejected,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}
	}

	outbox := eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, metrics, cfg.OutboxPollInterval, cfg.OutboxBatchSize, cfg.OutboxClaimTTL, cfg.OutboxMaxRetries)
	banRetry := eventadapter.NewBanRetryWorker(logger, service, cfg.BanRetryInterval, cfg.BanRetryBatchSize)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		banRetry:   banRetry,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = directory.Close()
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("outbox worker started")
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("outbox worker: %w", err)
		}
	}()
	go func() {
		r.logger.Info("ban retry worker started")
		if err := r.banRetry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("ban retry worker: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.Error("worker failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
