// File: tutorhive/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorhive/config"
	"tutorhive/cron"
	"tutorhive/database"
	availabilityRepo "tutorhive/database/repository/availability"
	bookingRepo "tutorhive/database/repository/booking"
	credentialRepo "tutorhive/database/repository/credential"
	"tutorhive/handlers"
	"tutorhive/middleware"
	"tutorhive/routes"
	"tutorhive/services/calendar"
	"tutorhive/services/notification"
	syncsvc "tutorhive/services/sync"
	"tutorhive/services/tutoring"
	"tutorhive/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	availRepo := availabilityRepo.NewMongoAvailabilityRepo()
	bookRepo := bookingRepo.NewMongoBookingRepo()
	credRepo := credentialRepo.NewMongoCredentialRepo()

	if err := availRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure availability indexes: %v", err)
	}
	if err := bookRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	// services.
	provider := calendar.NewGoogleProvider()
	authCoordinator := calendar.NewTokenRefreshCoordinator(provider, credRepo, logger)

	syncEngine := &syncsvc.Engine{
		Auth:         authCoordinator,
		Provider:     provider,
		Availability: availRepo,
		Logger:       logger,
	}

	registry := syncsvc.NewRegistry(func(tutorID string) *syncsvc.Scheduler {
		return syncsvc.NewScheduler(
			syncEngine,
			tutorID,
			config.AppConfig.SyncInterval,
			config.AppConfig.MinSyncInterval,
			config.AppConfig.SyncWindowDays,
			logger,
		)
	})

	notificationService := &notification.LogService{Logger: logger}
	cron.InitReminderWorker(notificationService)
	reminderClient := cron.NewReminderClient()

	availabilityService := &tutoring.DefaultAvailabilityService{
		Repo:     availRepo,
		Fallback: syncsvc.NewFallbackProvider(),
		Cache:    utils.GetCacheClient(),
		Logger:   logger,
	}

	bookingCoordinator := &tutoring.DefaultBookingCoordinator{
		Availability: availRepo,
		Bookings:     bookRepo,
		Reminders:    reminderClient,
		Cache:        utils.GetCacheClient(),
		Logger:       logger,
	}

	// Restart schedulers for tutors whose calendars were connected before
	// the last shutdown.
	resumeCtx, resumeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	tutorIDs, err := credRepo.ListTutorIDs(resumeCtx)
	resumeCancel()
	if err != nil {
		logger.Sugar().Warnf("main: failed to resume sync schedulers: %v", err)
	} else {
		for _, tutorID := range tutorIDs {
			registry.Ensure(context.Background(), tutorID)
		}
		logger.Sugar().Infof("main: resumed %d sync schedulers", len(tutorIDs))
	}

	// Assemble the handler bundle.
	handlerBundle := &routes.HandlerBundle{
		Availability: handlers.NewAvailabilityHandler(availabilityService, logger),
		Booking:      handlers.NewBookingHandler(bookingCoordinator, bookRepo, logger),
		Calendar:     handlers.NewCalendarHandler(credRepo, registry, logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	registry.StopAll()
	if err := reminderClient.Close(); err != nil {
		logger.Sugar().Warnf("main: failed to close reminder client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
