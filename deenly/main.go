package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deenly/deenly/config"
	"deenly/deenly/controllers"
	"deenly/deenly/middlewares"
	"deenly/deenly/routes"
	"deenly/deenly/services/chat"
	"deenly/deenly/services/entitlement"
	"deenly/deenly/services/hadith"
	"deenly/deenly/services/llm"
	"deenly/deenly/sources/psql"
	"deenly/deenly/sources/psql/dao"
	"deenly/deenly/sources/storage"
	"deenly/deenly/telemetry"
	"deenly/deenly/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.TraceFile)
	if err != nil {
		logging.ErrorLogger.Error("tracing init error", zap.Error(err))
		os.Exit(1)
	}

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	auth, err := middlewares.NewAuthenticator(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("auth init error", zap.Error(err))
		os.Exit(1)
	}
	responder, err := llm.NewFromConfig(&cfg)
	if err != nil {
		logging.ErrorLogger.Error("llm init error", zap.Error(err))
		os.Exit(1)
	}
	lib, err := hadith.Load()
	if err != nil {
		logging.ErrorLogger.Error("hadith library error", zap.Error(err))
		os.Exit(1)
	}

	// exports are optional
	var exporter *storage.Exporter
	if cfg.MinIOEndpoint != "" {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
		exporter = storage.NewExporter(minioClient)
	}

	userDAO := dao.NewUserDAO(db.DB)
	manager := chat.NewManager(chat.Deps{
		Messages:     dao.NewMessageDAO(db.DB),
		Memories:     dao.NewMemoryDAO(db.DB),
		Responder:    responder,
		Entitlements: entitlement.NewSource(userDAO, dao.NewUsageDAO(db.DB), time.Local),
		DailyLimit:   cfg.DailyQuestionLimit,
	})

	sqlDB, err := db.DB.DB()
	if err != nil {
		logging.ErrorLogger.Error("database handle error", zap.Error(err))
		os.Exit(1)
	}
	handler := routes.NewRouter(routes.Controllers{
		Auth:      controllers.NewAuthController(userDAO, auth),
		User:      controllers.NewUserController(userDAO),
		Chat:      controllers.NewChatController(manager, exporter),
		Reminders: controllers.NewReminderController(dao.NewReminderDAO(db.DB)),
		Hadith:    controllers.NewHadithController(lib),
		Health:    controllers.NewHealthController(sqlDB),
	}, auth, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server starting", zap.String("port", cfg.Port), zap.String("llm_backend", cfg.LLMBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("tracing shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
