package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "vaccine-backend/cmd/api"
	apptRepo "vaccine-backend/internal/appointment/repository"
	notifRepo "vaccine-backend/internal/notification/repository"
	notifUsecase "vaccine-backend/internal/notification/usecase"
	recipientRepo "vaccine-backend/internal/recipient/repository"
	"vaccine-backend/internal/scheduler"
	"vaccine-backend/internal/watcher"
	"vaccine-backend/pkg/config"
	"vaccine-backend/pkg/database"
	"vaccine-backend/pkg/fcm"
	"vaccine-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Firebase app (messaging + optional auth)
	app, err := fcm.NewApp(ctx, cfg.FirebaseCredentials)
	if err != nil {
		log.Fatal("Failed to initialize Firebase app", zap.Error(err))
	}

	fcmClient, err := fcm.NewClient(ctx, app)
	if err != nil {
		log.Fatal("Failed to initialize FCM client", zap.Error(err))
	}
	log.Info("FCM client initialized")

	var authClient *auth.Client
	if cfg.RequireAuth {
		authClient, err = app.Auth(ctx)
		if err != nil {
			log.Fatal("Failed to initialize Firebase auth client", zap.Error(err))
		}
		log.Info("Firebase auth client initialized")
	}

	// Initialize Firestore
	db, err := database.NewFirestoreClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
	if err != nil {
		log.Fatal("Failed to connect to Firestore", zap.Error(err))
	}
	defer db.Close()
	log.Info("Firestore client initialized", zap.String("project", cfg.FirebaseProjectID))

	// Initialize repositories (dependency injection)
	directory := recipientRepo.NewRecipientRepository(db)
	records := notifRepo.NewNotificationRepository(db)
	appointments := apptRepo.NewAppointmentRepository(db)

	// The shared send primitive: watchers, scheduler and HTTP all go through it
	sender := notifUsecase.NewSenderUsecase(directory, records, fcmClient, cfg.SendTimeout, log)

	// Change watchers
	tracker := watcher.NewStatusTracker(db)
	hospitalWatcher := watcher.NewHospitalWatcher(db, sender, cfg.AdminRecipientID, log)
	parentWatcher := watcher.NewParentWatcher(db, sender, cfg.AdminRecipientID, log)
	appointmentWatcher := watcher.NewAppointmentWatcher(db, sender, tracker, log)
	historyWatcher := watcher.NewHistoryWatcher(db, sender, log)

	go hospitalWatcher.Start(ctx)
	go parentWatcher.Start(ctx)
	go appointmentWatcher.Start(ctx)
	go historyWatcher.Start(ctx)

	// Scheduler: daily sweep + due-record poller + creation hook
	processor := scheduler.NewProcessor(sender, records, log)
	poller := scheduler.NewPoller(records, processor, cfg.PollInterval, cfg.PollBatchSize, log)
	sweep := scheduler.NewReminderSweep(appointments, sender, cfg.ReminderHour, log)
	hook := watcher.NewScheduledHook(db, processor, log)

	go poller.Start(ctx)
	go sweep.Start(ctx)
	go hook.Start(ctx)

	// HTTP surface
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	handler := api.NewHandler(sender, directory, records, log)
	api.SetupRoutes(r, handler, authClient, cfg.RequireAuth, log)

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
