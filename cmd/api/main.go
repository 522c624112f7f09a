package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"agentportal/internal/app"
	"agentportal/internal/blob"
	"agentportal/internal/config"
	"agentportal/internal/database"
	apphttp "agentportal/internal/http"
	"agentportal/internal/http/handlers"
	httpmw "agentportal/internal/http/middleware"
	"agentportal/internal/mailer"
	"agentportal/internal/observability"
	"agentportal/internal/repository/postgres"
	"agentportal/internal/session"
)

const notifierInterval = 15 * time.Second

func main() {
	// Local development convenience; production relies on real env vars.
	_ = godotenv.Load("secrets.env")

	cfg := config.Load()
	logger := observability.NewLogger()
	db := database.NewPostgres(database.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdle:     cfg.DBConnMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	defer db.Close()

	redisClient := database.NewRedis(database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	storageClient, err := storage.NewClient(context.Background())
	if err != nil {
		log.Fatalf("failed to create storage client: %v", err)
	}
	defer storageClient.Close()
	blobStore := blob.NewGCSStore(storageClient, cfg.StorageBucket)

	credentialRepo := postgres.NewCredentialRepository(db)
	agentRepo := postgres.NewAgentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	sessionStore := session.NewRedisStore(redisClient, cfg.SessionTTL)

	smtp := mailer.NewSMTPMailer(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		From:      cfg.SMTPFrom,
		Reviewers: cfg.ReviewerEmails,
	})

	authService := app.NewAuthService(credentialRepo, sessionStore, cfg.AdminLogin, cfg.AdminPassword, logger)
	agentService := app.NewAgentService(agentRepo, blobStore, cfg.ReviewerEmails, logger)
	adminService := app.NewAdminService(agentRepo, blobStore, cfg.ReviewerEmails, logger)

	notifier := app.NewNotifier(outboxRepo, smtp, logger, notifierInterval)
	go notifier.Run()

	limiter := httpmw.NewRedisLimiter(redisClient)
	router := apphttp.NewRouter(apphttp.RouterDependencies{
		AuthHandler:    handlers.NewAuthHandler(authService, limiter),
		SessionHandler: handlers.NewSessionHandler(sessionStore),
		AgentHandler:   handlers.NewAgentHandler(agentService, sessionStore),
		AdminHandler:   handlers.NewAdminHandler(adminService),
		Sessions:       httpmw.NewSessionMiddleware(sessionStore, cfg.SecureCookies),
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API started on :" + cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	notifier.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
