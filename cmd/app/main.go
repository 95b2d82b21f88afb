package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"social-backend/configs"
	"social-backend/internal/auth"
	"social-backend/internal/comment"
	"social-backend/internal/idem"
	"social-backend/internal/kafka"
	"social-backend/internal/media"
	"social-backend/internal/migrate"
	"social-backend/internal/post"
	"social-backend/internal/router"
	"social-backend/internal/shared/db"
	"social-backend/internal/shared/logx"
	"social-backend/internal/shared/metrics"
	"social-backend/internal/storage/s3"
	"social-backend/internal/user"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"gorm.io/plugin/opentelemetry/tracing"
)

func main() {
	app := &cli.App{
		Name:  "social-backend",
		Usage: "users, posts and comments over a JSON API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: func(c *cli.Context) error { return serve(c.Context) },
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema and exit",
				Action: func(c *cli.Context) error { return runMigrate(c.Context) },
			},
		},
		Action: func(c *cli.Context) error { return serve(c.Context) },
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("exit", "err", err)
		os.Exit(1)
	}
}

// initOTEL installs a tracer provider when an OTLP endpoint is configured.
func initOTEL(ctx context.Context, env string) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("otel exporter: %w", err)
	}
	name := os.Getenv("OTEL_SERVICE_NAME")
	if name == "" {
		name = "social-backend"
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		attribute.String("deployment.environment", env),
	))
	ratio := 1.0
	if s := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

func openStore(ctx context.Context, cfg *configs.Config) (*db.Store, error) {
	store, err := db.Open(ctx, db.Config{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DSN(),
		ReplicaDSNs: cfg.DBReplicaDSNs,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Base.Use(tracing.NewPlugin()); err != nil {
		slog.Warn("gorm tracing plugin", "err", err)
	}
	return store, nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return err
	}
	logx.New(logx.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := migrate.AutoMigrateAll(store); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("schema up to date", "driver", store.Driver())
	return nil
}

func serve(parent context.Context) error {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return err
	}
	logger := logx.New(logx.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// closers run in reverse order on shutdown
	var closers []func(context.Context) error
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](c); err != nil {
				slog.Warn("shutdown hook", "err", err)
			}
		}
	}()

	shutdownOTEL, err := initOTEL(ctx, cfg.Env)
	if err != nil {
		return err
	}
	closers = append(closers, shutdownOTEL)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { return store.Close() })

	if cfg.AutoMigrate {
		if err := migrate.AutoMigrateAll(store); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	secrets, err := auth.NewSecretProvider(cfg.JWTSecretPolicy, cfg.JWTSecret)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, using the built-in default secret", "policy", secrets.Policy())
	}
	tokens := auth.NewTokenService(secrets, cfg.JWTExpiration)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	var events kafka.Publisher = kafka.Nop{}
	if cfg.KafkaBrokers != "" {
		ev := kafka.NewEvents(
			kafka.NewWriter(kafka.WriterConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopicPosts, RequiredAcks: cfg.KafkaRequiredAcks, Async: cfg.KafkaAsync}),
			kafka.NewWriter(kafka.WriterConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopicComments, RequiredAcks: cfg.KafkaRequiredAcks, Async: cfg.KafkaAsync}),
		)
		closers = append(closers, func(context.Context) error { return ev.Close() })
		events = ev
	}

	var idemStore idem.Store = idem.Nop{}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func(context.Context) error { return rdb.Close() })
		idemStore = idem.New(rdb, cfg.IdempotencyTTL)
	}

	var mediaHandler *media.Handler
	if cfg.MinioEndpoint != "" {
		st, err := s3.New(s3.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("minio bucket: %w", err)
		}
		mediaHandler = media.NewHandler(st, cfg.MediaMaxBytes)
	}

	userRepo := user.NewRepository(store)
	userSvc := user.NewService(userRepo, hasher, tokens, user.Options{LegacyPlaintext: cfg.LegacyPlaintext})

	postRepo := post.NewRepository(store)
	commentRepo := comment.NewRepository(store)
	postSvc := post.NewService(store, postRepo, commentRepo, events)
	commentSvc := comment.NewService(commentRepo, postRepo, events)

	mux := router.New(router.Deps{
		Tokens:   tokens,
		Users:    user.NewHandler(userSvc, tokens.TTL()),
		Posts:    post.NewHandler(postSvc, idemStore),
		Comments: comment.NewHandler(commentSvc),
		Media:    mediaHandler,
		Ready: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(ctx).Err()
			}
			return nil
		},
	})

	var handler http.Handler = metrics.Middleware(mux)
	handler = logx.Middleware(logger)(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", post.IdempotencyHeader},
	}).Handler(handler)

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           otelhttp.NewHandler(handler, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("social-backend listening", "addr", cfg.AppPort,
			"db", store.Driver(), "jwt_policy", secrets.Policy(),
			"kafka", cfg.KafkaBrokers != "", "redis", rdb != nil, "media", mediaHandler != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
