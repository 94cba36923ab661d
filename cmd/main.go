package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm-auth-server/config"
	_ "farm-auth-server/docs"
	"farm-auth-server/internal/handler"
	"farm-auth-server/internal/repository"
	"farm-auth-server/internal/security"
	"farm-auth-server/internal/service"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Farm-auth-server
// @version 1.0
// @description Сервис аутентификации и жизненного цикла сессий фермерской платформы

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	jwtService, err := security.NewJWTService(&cfg.JWT)
	if err != nil {
		log.Fatalf("Ошибка создания JWT сервиса: %v", err)
	}
	hasher := security.NewHasher(cfg.Bcrypt.Cost)

	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	sessionRepo := repository.NewSessionRepository(cacheRepo, jwtService.RefreshTokenTTL())
	blacklistRepo := repository.NewBlacklistRepository(cacheRepo, jwtService)
	rateLimitRepo := repository.NewRateLimitRepository(cacheRepo)

	authService := service.NewAuthenticationService(userRepo, jwtService, sessionRepo, blacklistRepo, hasher)
	userService := service.NewUserService(userRepo)

	authHandler := handler.NewAuthenticationHandler(authService)
	userHandler := handler.NewUserHandler(userService, authService)

	guard := security.JWTMiddleware(jwtService, blacklistRepo, authService)
	optionalGuard := security.OptionalJWTMiddleware(jwtService, blacklistRepo, authService)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, guard, optionalGuard, rateLimitRepo, cfg)
	setupUserRoutes(router, userHandler, guard, rateLimitRepo, cfg)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, guard, optionalGuard func(http.Handler) http.Handler, limiter *repository.RateLimitRepository, cfg *config.AppConfig) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(limiter, "login", cfg.RateLimit.Login))
			r.Post("/", h.Login)
		})
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(limiter, "refresh", cfg.RateLimit.Refresh))
			r.Post("/refresh", h.RefreshToken)
		})

		// Logout без guard: истёкший access токен не должен мешать выйти
		r.Delete("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Get("/me", h.GetCurrentUsersUUID)
			r.Head("/me", h.GetCurrentUsersUUIDHead)
		})
		r.Group(func(r chi.Router) {
			r.Use(optionalGuard)
			r.Get("/session", h.SessionProbe)
		})
	})
}

func setupUserRoutes(r chi.Router, h *handler.UserHandler, guard func(http.Handler) http.Handler, limiter *repository.RateLimitRepository, cfg *config.AppConfig) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(limiter, "register", cfg.RateLimit.Register))
			r.Post("/register", h.RegisterUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(guard)

			r.Route("/users/{uuid}", func(r chi.Router) {
				r.Get("/", h.GetUser)
				r.Head("/", h.GetUserHead)
				r.Put("/password", h.UpdatePassword)
			})
		})
	})
}

func rateLimit(limiter *repository.RateLimitRepository, routeClass string, rule config.RateLimitRule) func(http.Handler) http.Handler {
	window, maxRequests, err := parseRateLimitRule(rule)
	if err != nil {
		log.Fatalf("Ошибка конфигурации лимитера %s: %v", routeClass, err)
	}
	return security.RateLimitMiddleware(limiter, routeClass, window, maxRequests)
}

func parseRateLimitRule(rule config.RateLimitRule) (time.Duration, int, error) {
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка парсинга окна лимитера: %w", err)
	}
	if rule.MaxRequests <= 0 {
		return 0, 0, fmt.Errorf("max_requests должен быть положительным")
	}
	return window, rule.MaxRequests, nil
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
