package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"bee-social/internal/blob"
	"bee-social/internal/config"
	"bee-social/internal/db"
	grpcclient "bee-social/internal/grpc"
	"bee-social/internal/handlers"
	"bee-social/internal/identity"
	"bee-social/internal/logger"
	"bee-social/internal/middleware"
	"bee-social/internal/observability"
	"bee-social/internal/rabbitmq"
	"bee-social/internal/ratelimit"
	"bee-social/internal/repositories"
	"bee-social/internal/telemetry"
)

const serviceName = "bee-social"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, cache and rate limits degrade to local")
	}

	identityConn, err := grpc.NewClient(cfg.IdentityGRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(observability.GRPCClientMetricsUnaryInterceptor()),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create identity grpc client")
	}
	defer identityConn.Close()

	images, err := blob.NewS3Store(ctx, blob.Options{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure blob store")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	logger.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("event publisher ready")
	events := telemetry.NewEmitter(publisher, serviceName, cfg.Env)

	userRepo := repositories.NewUserRepo(database)
	directory := identity.NewDirectory(
		grpcclient.NewIdentityClient(identityConn),
		identity.NewRedisCache(rdb),
		userRepo,
		cfg.IdentityCacheTTL,
		cfg.IdentityMaxStaleness,
	)

	writeLimiter := ratelimit.NewFallback(
		ratelimit.NewSlidingWindow(rdb, "ratelimit:", cfg.PostRateLimit, cfg.PostRateWindow),
		ratelimit.NewLocal(cfg.PostRateLimit, cfg.PostRateWindow),
	)

	ipLimiter := middleware.NewIPRateLimiter(20, 40)
	stopEviction := make(chan struct{})
	go ipLimiter.Run(time.Minute, stopEviction)
	defer close(stopEviction)

	router := newRouter(cfg, routerDeps{
		users:         userRepo,
		chats:         repositories.NewChatRepo(database),
		messages:      repositories.NewMessageRepo(database),
		follows:       repositories.NewFollowRepo(database),
		notifications: repositories.NewNotificationRepo(database),
		posts:         repositories.NewPostRepo(database),
		likes:         repositories.NewLikeRepo(database),
		comments:      repositories.NewCommentRepo(database),
		directory:     directory,
		images:        images,
		limiter:       writeLimiter,
		ipLimiter:     ipLimiter,
		events:        events,
		verifier:      middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		checks: map[string]handlers.HealthCheck{
			"postgres": database.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("bee-social listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("tracer shutdown failed")
	}
}
