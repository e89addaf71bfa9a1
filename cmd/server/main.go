package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"playdates/internal/config"
	"playdates/internal/database"
	"playdates/internal/handlers"
	"playdates/internal/repository"
	"playdates/internal/security"
	"playdates/internal/service"
	"playdates/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	handlers.SetLogger(log)
	database.SetLogger(log)

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	if err := db.SeedBlocklist(); err != nil {
		// The blocklist download needs network access; run degraded without it
		log.WithError(err).Warn("failed to seed content blocklist")
	}

	// Repositories
	parentRepo := repository.NewParentRepository(db)
	childRepo := repository.NewChildRepository(db)
	interestRepo := repository.NewInterestRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	playdateRepo := repository.NewPlaydateRepository(db)
	participantRepo := repository.NewParticipantRepository(db)

	// Services
	emailService, err := service.NewEmailService(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize email service")
	}
	authService := service.NewAuthService(parentRepo, emailService, cfg.SessionDuration)
	adminService := service.NewAdminService(parentRepo, emailService, log)
	locationService := service.NewLocationService(nil, cfg.LocationTimeout, cfg.LocationCacheTTL)
	profileService := service.NewProfileService(db, parentRepo, childRepo, interestRepo)
	connectionService := service.NewConnectionService(connectionRepo, parentRepo, emailService, log)
	messageService := service.NewMessageService(db, messageRepo, connectionService)
	suggestionService := service.NewSuggestionService(parentRepo, childRepo, interestRepo, connectionRepo, locationService, cfg.SuggestionLimit, cfg.SuggestionCacheTTL)
	playdateService := service.NewPlaydateService(playdateRepo, participantRepo, parentRepo, locationService, cfg.NearbyRadiusKm)
	rosterService := service.NewRosterService(db, playdateRepo, participantRepo, childRepo, cfg.CapacityEnforced)

	if err := adminService.BootstrapAdmin(cfg.AdminEmail); err != nil {
		log.WithError(err).Fatal("failed to bootstrap admin account")
	}

	// HTTP layer
	limiter := security.NewRateLimiter(60, time.Minute)
	mw := handlers.NewMiddleware(authService, limiter, log)
	hub := handlers.NewHub(log)

	mux := http.NewServeMux()
	handlers.NewAuthHandler(authService, mw, log).Register(mux)
	handlers.NewOAuthHandler(authService, cfg, log).Register(mux)
	handlers.NewProfileHandler(profileService, locationService, mw, log).Register(mux)
	handlers.NewConnectionHandler(connectionService, suggestionService, mw, log).Register(mux)
	handlers.NewMessageHandler(messageService, hub, mw, log).Register(mux)
	handlers.NewPlaydateHandler(playdateService, rosterService, mw, log).Register(mux)
	handlers.NewAdminHandler(adminService, mw, log).Register(mux)
	handlers.NewWSHandler(hub, mw, cfg.CORSAllowedOrigins, log).Register(mux)

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mw.Logging(corsWrapper.Handler(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background maintenance: expired sessions, reset tokens and caches
	maintenanceCtx, stopMaintenance := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-maintenanceCtx.Done():
				return
			case <-ticker.C:
				if err := authService.CleanupExpired(); err != nil {
					log.WithError(err).Warn("session cleanup failed")
				}
				locationService.Sweep()
				suggestionService.Sweep()
			}
		}
	}()

	go func() {
		log.WithField("port", cfg.ServerPort).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopMaintenance()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
