package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"ladla-backend/internal/admin"
	"ladla-backend/internal/auth"
	"ladla-backend/internal/cache"
	"ladla-backend/internal/config"
	"ladla-backend/internal/contact"
	"ladla-backend/internal/dashboard"
	"ladla-backend/internal/db"
	"ladla-backend/internal/formulas"
	"ladla-backend/internal/handlers"
	"ladla-backend/internal/middleware"
	"ladla-backend/internal/newsletter"
	"ladla-backend/internal/notifications"
	"ladla-backend/internal/pricing"
	"ladla-backend/internal/reservations"
	"ladla-backend/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if cfg.Env == "development" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoWait()+10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoWait(), logger)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	checks := map[string]handlers.Check{
		"mongo": func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
		checks["redis"] = redisCache.Ping
	} else if cfg.Env == "development" {
		cacheStore = cache.NewMemory()
		logger.Info("redis disabled, using in-process cache")
	} else {
		logger.Info("redis disabled, caching off")
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "ladla-backend",
		}
	} else {
		logger.Warn("JWT_SECRET not set, admin login disabled")
	}

	// A nil *BrevoClient must not end up inside a non-nil interface.
	var (
		reservationNotifier reservations.Notifier
		contactNotifier     contact.Notifier
	)
	if mailer := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.AdminNotifyEmail, cfg.BrevoSandbox); mailer != nil {
		reservationNotifier = mailer
		contactNotifier = mailer
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	} else {
		logger.Info("brevo mailer disabled")
	}

	val := validation.New()
	loc := cfg.Location()
	resolver := pricing.NewResolver(cfg.PremiumWashFallbackPrice, cfg.OzoneDefaultPrice)

	formulaService := formulas.NewService(formulas.NewRepository(cols.Formulas), cacheStore, cfg.CacheTTL(), loc, logger)
	reservationService := reservations.NewService(reservations.NewRepository(cols.Reservations), formulaService, resolver, reservationNotifier, cacheStore, cfg.CacheTTL(), loc, logger)
	contactService := contact.NewService(contact.NewRepository(cols.Contacts), contactNotifier, loc, logger)
	newsletterService := newsletter.NewService(newsletter.NewRepository(cols.Subscribers), loc)
	adminService := admin.NewService(admin.NewRepository(cols.AdminUsers), jwtManager, loc)

	if created, err := adminService.Bootstrap(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
		logger.Error("admin bootstrap failed", slog.String("error", err.Error()))
	} else if created {
		logger.Info("admin account created", slog.String("username", cfg.AdminUser))
	}

	system := &handlers.Server{Cfg: cfg, Log: logger, Checks: checks}
	formulaHandler := formulas.NewHandler(formulaService, val, logger, cfg.PremiumWashFallbackPrice)
	reservationHandler := reservations.NewHandler(reservationService, val, logger)
	contactHandler := contact.NewHandler(contactService, val, logger)
	newsletterHandler := newsletter.NewHandler(newsletterService, val, logger)
	dashboardHandler := dashboard.NewHandler(reservationService, logger)
	adminHandler := admin.NewHandler(adminService, val, logger, cfg.CookieSecure, time.Duration(cfg.RefreshTTLMinutes)*time.Minute)

	requireAdmin := middleware.AdminAuth(cfg.AdminAPIKey, jwtManager)
	reservationsLimiter := middleware.NewRateLimiter(cfg.RateLimitReservations, cfg.RateLimitWindow())
	contactLimiter := middleware.NewRateLimiter(cfg.RateLimitContact, cfg.RateLimitWindow())

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Route("/api", func(api chi.Router) {
		system.Routes(api)
		formulaHandler.Routes(api, requireAdmin)
		reservationHandler.Routes(api, requireAdmin, reservationsLimiter.Middleware)
		contactHandler.Routes(api, requireAdmin, contactLimiter.Middleware)
		newsletterHandler.Routes(api, requireAdmin, contactLimiter.Middleware)
		dashboardHandler.Routes(api, requireAdmin)
		adminHandler.Routes(api, requireAdmin, contactLimiter.Middleware)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	// Let in-flight confirmation emails finish before the process exits.
	done := make(chan struct{})
	go func() {
		reservationService.Wait()
		contactService.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown: pending notifications dropped")
	}
	logger.Info("server stopped")
}
