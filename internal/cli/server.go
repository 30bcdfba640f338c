package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/infra/postgres"
	redisinfra "classroom-quiz-service/internal/infra/redis"
	"classroom-quiz-service/internal/logging"
	"classroom-quiz-service/internal/metrics"
	transport "classroom-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type stores struct {
	quizzes       app.QuizStore
	classes       app.ClassStore
	users         app.UserStore
	notifications app.NotificationStore
	close         func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) is required")
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loader := app.NewLeaderboardLoader(st.quizzes, st.users)
	cacheTTL := config.TTLDuration(cfg.Quiz.LeaderboardTTL, 30*time.Second)

	var (
		locker app.QuizLocker
		cache  app.LeaderboardCache
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		locker = redisinfra.NewQuizLocker(client, config.TTLDuration(cfg.Redis.LockTTL, 5*time.Second))
		cache = redisinfra.NewLeaderboardCache(client, loader, cacheTTL, logger)
		logger.Info("using redis lock and leaderboard cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		locker = memory.NewQuizLocker()
		cache = memory.NewLeaderboardCache(loader, cacheTTL)
	}

	opts := []app.Option{app.WithMetrics(m)}
	if cfg.Quiz.SubmitRetries > 0 {
		opts = append(opts, app.WithSubmitRetries(cfg.Quiz.SubmitRetries))
	}
	notifier := app.NewNotificationService(st.notifications, logger, opts...)
	opts = append(opts, app.WithNotifier(notifier))
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))

	handler := transport.NewRouter(transport.Services{
		Users:         app.NewUserService(st.users, tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost), logger, opts...),
		Classes:       app.NewClassService(st.classes, logger, opts...),
		Quizzes:       app.NewQuizService(st.quizzes, st.classes, locker, cache, logger, opts...),
		Leaderboards:  app.NewLeaderboardService(st.quizzes, st.users, app.NewEnrollment(st.classes), locker, cache, logger, opts...),
		Notifications: notifier,
	}, transport.RouterConfig{
		Tokens:         tokens,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.RateLimit.TrustedProxies,
	})

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStores picks Postgres when configured (migrating on startup) and the
// in-memory store otherwise.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.Postgres.URL == "" {
		logger.Warn("postgres not configured, using in-memory store")
		store := memory.NewStore()
		return stores{quizzes: store, classes: store, users: store, notifications: store, close: func() {}}, nil
	}

	if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
		return stores{}, err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return stores{}, err
	}
	db := postgres.OpenBun(cfg.Postgres.URL)
	return stores{
		quizzes:       postgres.NewQuizStore(db),
		classes:       postgres.NewClassStore(pool),
		users:         postgres.NewUserStore(pool),
		notifications: postgres.NewNotificationStore(pool),
		close: func() {
			pool.Close()
			_ = db.Close()
		},
	}, nil
}
