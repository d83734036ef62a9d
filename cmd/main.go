package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/bekzat-dev/tournament-app/brackets"
	"github.com/bekzat-dev/tournament-app/config"
	"github.com/bekzat-dev/tournament-app/db"
	"github.com/bekzat-dev/tournament-app/handlers"
	"github.com/bekzat-dev/tournament-app/live"
	"github.com/bekzat-dev/tournament-app/qr"
	"github.com/bekzat-dev/tournament-app/repositories"
	api "github.com/bekzat-dev/tournament-app/routes"
	"github.com/bekzat-dev/tournament-app/services"
	"github.com/bekzat-dev/tournament-app/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Применение миграций
	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	ticketRepo := repositories.NewPostgresTicketRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	qrSigner := qr.NewSigner(cfg.QRSecretKey)
	bracketGenerator := brackets.NewSingleEliminationGenerator()

	authService := services.NewAuthService(userRepo)
	profileService := services.NewProfileService(profileRepo, cloudflareUploader)
	tournamentService := services.NewTournamentService(tournamentRepo)
	ticketService := services.NewTicketService(dbConn, ticketRepo, profileRepo, tournamentRepo, qrSigner)
	checkinService := services.NewCheckinService(dbConn, ticketRepo, qrSigner, wsHub)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, ticketRepo, bracketRepo, bracketGenerator, wsHub)
	adminUserService := services.NewAdminUserService(userRepo)
	dashboardService := services.NewDashboardService(userRepo, tournamentRepo, ticketRepo, bracketRepo)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	profileHandler := handlers.NewProfileHandler(profileService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	ticketHandler := handlers.NewTicketHandler(ticketService)
	checkinHandler := handlers.NewCheckinHandler(checkinService)
	bracketHandler := handlers.NewBracketHandler(bracketService)
	adminUserHandler := handlers.NewAdminUserHandler(adminUserService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Config{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.AllowedOrigins,
		},
		authHandler,
		profileHandler,
		tournamentHandler,
		ticketHandler,
		checkinHandler,
		bracketHandler,
		adminUserHandler,
		dashboardHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
