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

	"github.com/courtside/pickleball-backend/brackets"
	"github.com/courtside/pickleball-backend/config"
	"github.com/courtside/pickleball-backend/db"
	"github.com/courtside/pickleball-backend/dupr"
	"github.com/courtside/pickleball-backend/handlers"
	"github.com/courtside/pickleball-backend/repositories"
	api "github.com/courtside/pickleball-backend/routes"
	"github.com/courtside/pickleball-backend/services"
	"github.com/courtside/pickleball-backend/storage"
)

const schedulerInterval = 30 * time.Second

// @title        Pickleball Tournament API
// @version      1.0
// @description  Round-robin and single-elimination pickleball tournaments with live scores and DUPR rating submission.
// @BasePath     /
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if !cfg.R2Configured() {
		logger.Error("R2 object storage is not fully configured, set the R2_* environment variables")
		os.Exit(1)
	}
	uploader, err := storage.NewR2Uploader(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}

	if !cfg.DuprConfigured() {
		logger.Error("DUPR integration is not fully configured, set the DUPR_* environment variables")
		os.Exit(1)
	}
	duprClient := dupr.NewClient(cfg.DuprBaseURL, cfg.DuprClientKey, cfg.DuprClientSecret, logger)

	wsHub := brackets.NewHub()
	go wsHub.Run()

	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)
	stateRepo := repositories.NewPostgresTournamentStateRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	roundRobinRepo := repositories.NewPostgresRoundRobinRepository(dbConn)
	playoffRepo := repositories.NewPostgresPlayoffRepository(dbConn)
	duprRepo := repositories.NewPostgresDuprRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo, cfg.MasterAdminEmail)
	userService := services.NewUserService(userRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, settingsRepo, teamRepo, uploader, logger)
	teamService := services.NewTeamService(teamRepo, userRepo, tournamentRepo, settingsRepo, stateRepo)
	stateService := services.NewStateService(txManager, stateRepo, settingsRepo, teamRepo,
		roundRobinRepo, playoffRepo, tournamentRepo, wsHub, logger)
	scoreService := services.NewScoreService(roundRobinRepo, playoffRepo, stateRepo, teamRepo, wsHub, logger)
	duprService := services.NewDuprService(duprClient, duprRepo, tournamentRepo, stateRepo, teamRepo,
		roundRobinRepo, playoffRepo, userRepo, cfg.DuprClubID, cfg.MasterAdminEmail, logger)
	logger.Info("services initialized")

	// Promote upcoming tournaments to live once their start date passes.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()

		if err := tournamentService.AutoUpdateTournamentStatuses(context.Background()); err != nil {
			logger.Error("status scheduler: initial run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := tournamentService.AutoUpdateTournamentStatuses(context.Background()); err != nil {
				logger.Error("status scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:       handlers.NewUserHandler(userService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Team:       handlers.NewTeamHandler(teamService),
		State:      handlers.NewStateHandler(stateService),
		Score:      handlers.NewScoreHandler(scoreService),
		Dupr:       handlers.NewDuprHandler(duprService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService),
	}, cfg.JWTSecretKey)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
