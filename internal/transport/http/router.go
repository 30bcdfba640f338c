package http

import (
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Users         *app.UserService
	Classes       *app.ClassService
	Quizzes       *app.QuizService
	Leaderboards  *app.LeaderboardService
	Notifications *app.NotificationService
}

// RouterConfig carries the cross-cutting pieces of the HTTP layer.
type RouterConfig struct {
	Tokens         *auth.TokenIssuer
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	// TrustedProxies are addresses or CIDRs whose X-Forwarded-For is honored.
	TrustedProxies []string
}

// Handler serves the REST API.
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// NewRouter wires routes and middleware.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{svc: svc, logger: logger}

	router := mux.NewRouter()
	router.Use(instrument(cfg.Metrics, logger))
	if cfg.RateLimitRPS > 0 {
		proxies, err := parseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			logger.Error("ignoring trusted proxies, rate limiting by peer address", zap.Error(err))
			proxies = nil
		}
		router.Use(newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, proxies).middleware)
	}

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Public routes
	router.HandleFunc("/api/users/register", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/users/login", h.Login).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authenticate(cfg.Tokens, svc.Users, logger))

	api.HandleFunc("/users/profile", h.Profile).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/status", h.SetUserStatus).Methods(http.MethodPut)

	api.HandleFunc("/classes", h.CreateClass).Methods(http.MethodPost)
	api.HandleFunc("/classes", h.ListClasses).Methods(http.MethodGet)
	api.HandleFunc("/classes/join", h.JoinClass).Methods(http.MethodPost)
	api.HandleFunc("/classes/{id}", h.GetClass).Methods(http.MethodGet)
	api.HandleFunc("/classes/{id}/quizzes", h.ListClassQuizzes).Methods(http.MethodGet)

	api.HandleFunc("/quizzes", h.CreateQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}", h.GetQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}", h.UpdateQuiz).Methods(http.MethodPut)
	api.HandleFunc("/quizzes/{id}", h.DeleteQuiz).Methods(http.MethodDelete)
	api.HandleFunc("/quizzes/{id}/submit", h.SubmitAttempt).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}/leaderboard", h.GetLeaderboard).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.MarkAllNotificationsRead).Methods(http.MethodPatch)
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPatch)

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(router)
}
