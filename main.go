package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/config"
	"github.com/NomadCrew/customer-feedback-portal/handlers"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
	"github.com/NomadCrew/customer-feedback-portal/router"
	"github.com/NomadCrew/customer-feedback-portal/services"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/store/backend"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	flags := config.GetFeatureFlags()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      string(cfg.Server.Environment),
			Release:          cfg.Server.Version,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			log.Warnw("Failed to initialize Sentry", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()

	list, err := backend.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize list backend: %v", err)
	}
	defer list.Close()

	candidates := feedback.DefaultCandidates()
	if cfg.List.CandidatesFile != "" {
		candidates, err = feedback.LoadCandidates(cfg.List.CandidatesFile)
		if err != nil {
			log.Fatalf("Failed to load field candidates: %v", err)
		}
		log.Infow("Loaded field candidates", "file", cfg.List.CandidatesFile)
	}

	var redisClient *redis.Client
	var rateLimiter services.RateLimiterInterface
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(config.ConfigureRedisOptions(&cfg.Redis))
		defer redisClient.Close()
		if err := config.PingRedis(ctx, redisClient, 3, 2*time.Second); err != nil {
			log.Warnw("Redis unavailable, submissions are not rate limited until it recovers", "error", err)
		}
		rateLimiter = services.NewRateLimitService(redisClient)
	} else {
		log.Info("Redis not configured, submission rate limiting disabled")
	}

	notifier := buildNotifier(cfg, flags)

	feedbackService := services.NewFeedbackService(services.FeedbackServiceConfig{
		Store:      list.Store,
		ListName:   cfg.List.Name,
		Candidates: candidates,
		Notifier:   notifier,
	})

	var identityProvider store.IdentityProvider
	if flags.IdentityLookup {
		identityProvider = list.Identity
	}
	identityService := services.NewIdentityService(identityProvider)

	forms := services.NewFormRegistry(feedbackService, cfg.Form.ServiceCategories, cfg.Form.SessionTTL)

	healthConfig := services.HealthServiceConfig{
		List:     list.Store,
		ListName: cfg.List.Name,
		Backend:  string(list.Name),
		Version:  cfg.Server.Version,
	}
	if list.Pool != nil {
		healthConfig.DB = list.Pool
	}
	if redisClient != nil {
		healthConfig.Redis = redisClient
	}
	healthService := services.NewHealthService(healthConfig)

	r := router.SetupRouter(router.Dependencies{
		Config: cfg,
		FeedbackHandler: handlers.NewFeedbackHandler(
			forms, feedbackService, identityService, cfg.List.Name, cfg.Form.ServiceCategories),
		HealthHandler: handlers.NewHealthHandler(healthService),
		RateLimiter:   rateLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "list", cfg.List.Name, "backend", list.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shut down", "error", err)
	}
}

func buildNotifier(cfg *config.Config, flags config.FeatureFlags) services.Notifier {
	log := logger.GetLogger()
	var notifiers services.MultiNotifier
	var metrics *services.NotificationMetrics

	if flags.ConfirmationEmail && cfg.Email.ResendAPIKey != "" || flags.TeamAlerts && cfg.Slack.WebhookURL != "" {
		metrics = services.NewNotificationMetrics(prometheus.DefaultRegisterer)
	}

	if flags.ConfirmationEmail && cfg.Email.ResendAPIKey != "" {
		notifiers = append(notifiers, services.NewEmailNotifier(&cfg.Email, metrics))
	}
	if flags.TeamAlerts && cfg.Slack.WebhookURL != "" {
		notifiers = append(notifiers, services.NewSlackNotifier(&cfg.Slack, metrics))
		log.Info("Team Slack alerts enabled")
	}

	if len(notifiers) == 0 {
		return nil
	}
	return notifiers
}
