package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/docs"
	"github.com/healthrisk/risk-api/internal/api"
	"github.com/healthrisk/risk-api/internal/api/handler"
	"github.com/healthrisk/risk-api/internal/api/metrics"
	"github.com/healthrisk/risk-api/internal/api/middleware"
	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/ports"
	"github.com/healthrisk/risk-api/internal/core/service"
	"github.com/healthrisk/risk-api/internal/infrastructure/db/memory"
	"github.com/healthrisk/risk-api/internal/infrastructure/db/mongo"
	"github.com/healthrisk/risk-api/internal/infrastructure/db/postgres"
	"github.com/healthrisk/risk-api/internal/infrastructure/db/redis"
	"github.com/healthrisk/risk-api/internal/infrastructure/health"
	"github.com/healthrisk/risk-api/internal/infrastructure/oauth"
	"github.com/healthrisk/risk-api/internal/infrastructure/queue"
	"github.com/healthrisk/risk-api/internal/infrastructure/security"
	"github.com/healthrisk/risk-api/internal/infrastructure/seed"
	"github.com/healthrisk/risk-api/internal/infrastructure/storage"
	"github.com/healthrisk/risk-api/internal/ml"
	"github.com/healthrisk/risk-api/internal/pkg/config"
	"github.com/healthrisk/risk-api/pkg/logger"
)

const (
	serviceName     = "risk-api"
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title          Health Risk API
// @version        1.0
// @description    Account management, cookie sessions and stroke risk prediction.
// @schemes        http https
// @BasePath       /
// @securityDefinitions.apikey  SessionCookie
// @in             cookie
// @name           risk_session
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: serviceName,
		Version: cfg.ServiceVersion,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn().Err(err).Msg("close resource")
			}
		}
	}()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	// --- User store ---
	repo, db, closeStore, err := openStore(startCtx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)
	log.Info().Str("driver", cfg.StoreDriver).Msg("user store ready")

	// --- Rate limiting ---
	rateStore := middleware.NewMemoryRateLimitStore(cfg.RateLimit.PerMinute, cfg.RateLimit.Window)
	var redisCheck health.Check
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(startCtx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		closers = append(closers, client)
		rateStore = redis.NewRateLimitStore(client, cfg.RateLimit.PerMinute, cfg.RateLimit.Window)
		redisCheck = health.NewRedisCheck(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis rate limiter enabled")
	}

	// --- Event publishing ---
	events := queue.NewNoop()
	if cfg.AMQP.URL != "" {
		pub, err := queue.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		events = pub
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("event publishing enabled")
	}
	closers = append(closers, events)

	// --- Security and services ---
	hasher := security.NewBcryptHasher()
	issuer := security.NewJWTSessionIssuer(cfg.Session.Secret)
	sessions := session.NewManager(issuer, session.Options{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.CookieSecure,
	})

	authService := service.NewAuthService(repo, hasher, issuer, events, log)
	userService := service.NewUserService(repo, hasher, events, log)

	if cfg.SeedUsersFile != "" {
		n, err := seed.NewSeeder(repo, hasher, log).FromFile(startCtx, cfg.SeedUsersFile)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		log.Info().Int("count", n).Str("file", cfg.SeedUsersFile).Msg("seed file applied")
	}

	// --- Prediction model ---
	source, err := modelSource(startCtx, cfg)
	if err != nil {
		return err
	}
	predictor := ml.NewStrokePredictor(source)
	if err := predictor.Load(startCtx, cfg.Model.Path); err != nil {
		log.Error().Err(err).Str("path", cfg.Model.Path).Msg("stroke model not loaded; predictions unavailable")
		metrics.ModelLoaded.Set(0)
	} else {
		info, _ := predictor.Info()
		log.Info().Str("model", info.Name).Str("version", info.Version).Msg("stroke model loaded")
		metrics.ModelLoaded.Set(1)
	}

	// --- Google sign-in ---
	var google api.GoogleDeps
	if cfg.Google.Enabled() {
		google = api.GoogleDeps{
			Provider: oauth.NewGoogleProvider(oauth.GoogleConfig{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.CallbackURL,
			}),
			State: security.NewStateSigner(cfg.Google.StateSecret),
			Routes: handler.GoogleRoutes{
				Home:  cfg.Google.HomePath,
				Login: cfg.Google.LoginPath,
				Error: cfg.Google.ErrorPath,
			},
		}
		log.Info().Msg("google sign-in enabled")
	}

	// --- Health checks ---
	checks := health.NewRegistry(health.DefaultTimeout,
		health.NewDatabaseCheck(db),
		health.NewModelCheck(predictor, source, cfg.Model.Path),
		health.NewDiskCheck(cfg.Disk.Path, cfg.Disk.MinFreeMB),
	)
	if redisCheck != nil {
		checks.Register(redisCheck)
	}

	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Version = cfg.ServiceVersion

	e := api.NewRouter(api.Dependencies{
		Log:            log,
		AuthService:    authService,
		UserService:    userService,
		Predictor:      predictor,
		Sessions:       sessions,
		SecureCookies:  cfg.Session.CookieSecure,
		Google:         google,
		Health:         checks,
		RateLimitStore: rateStore,
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-srvErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// closeFunc adapts a plain func into an io.Closer.
type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// openStore returns the configured user repository, a pinger for its
// backing database and a closer for the connection.
func openStore(ctx context.Context, cfg *config.Config) (ports.UserRepository, health.Pinger, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		repo := mongo.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, fmt.Errorf("ensure user indexes: %w", err)
		}
		closer := closeFunc(func() error { return client.Disconnect(context.Background()) })
		return repo, repo, closer, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, nil, nil, err
		}
		repo := postgres.NewUserRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("ensure user schema: %w", err)
		}
		return repo, health.PingFunc(db.PingContext), db, nil

	default:
		repo := memory.NewUserRepository()
		return repo, repo, closeFunc(func() error { return nil }), nil
	}
}

func modelSource(ctx context.Context, cfg *config.Config) (ports.ArtifactSource, error) {
	if cfg.Model.Source != config.ModelSourceS3 {
		return storage.NewFileSource(""), nil
	}
	client, err := storage.NewS3Client(ctx, storage.S3Config{
		Region:   cfg.Model.S3Region,
		Endpoint: cfg.Model.S3Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewS3Source(client, cfg.Model.S3Bucket), nil
}
