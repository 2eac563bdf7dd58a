package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/config"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/handlers"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/logging"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/middleware"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/repository"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/services"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/utils"
)

func main() {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !foundEnv {
		logger.Info(ctx, "No .env file found, relying on environment variables.")
	}
	logger.Info(ctx, "configuration loaded", "store", cfg.Store, "db", cfg.MongoDatabase, "port", cfg.Port)

	// --- Database Connection ---
	var (
		users        repository.UserRepository
		measurements repository.MeasurementRepository
	)
	switch cfg.Store {
	case config.StoreMemory:
		users, measurements = repository.NewMemoryUsers(), repository.NewMemoryMeasurements()
		logger.Warn(ctx, "using in-memory store, data is lost on restart")
	default:
		client, err := connectMongo(ctx, cfg.MongoURI)
		if err != nil {
			logger.Error(ctx, "failed to connect to MongoDB", "err", err)
			os.Exit(1)
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()

		db := client.Database(cfg.MongoDatabase)
		mu, mm := repository.NewMongoUsers(db), repository.NewMongoMeasurements(db)
		if err := mu.EnsureIndexes(ctx); err != nil {
			logger.Error(ctx, "index setup failed", "err", err)
			os.Exit(1)
		}
		if err := mm.EnsureIndexes(ctx); err != nil {
			logger.Error(ctx, "index setup failed", "err", err)
			os.Exit(1)
		}
		users, measurements = mu, mm
		logger.Info(ctx, "Successfully connected to MongoDB!")
	}

	// --- Initialize Services ---
	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error(ctx, "token manager", "err", err)
		os.Exit(1)
	}

	var mailer services.Mailer = &services.LogMailer{Log: logger}
	if cfg.MailWebhook != "" {
		mailer = services.NewWebhookMailer(cfg.MailWebhook, logger)
	}

	passwords, err := utils.NewPasswordHasher(cfg.PasswordCost)
	if err != nil {
		logger.Error(ctx, "password hasher", "err", err)
		os.Exit(1)
	}

	authSvc := services.NewAuthService(users, tokens, utils.NewRevokedTokens(), mailer, logger, services.AuthOptions{
		BaseURL:         cfg.PublicBaseURL,
		MaxPhotoBytes:   cfg.MaxPhotoBytes,
		Passwords:       passwords,
		VerificationTTL: cfg.VerificationTTL,
	})
	measurementSvc := services.NewMeasurementService(measurements, users, logger, cfg.MaxPhotoBytes)

	if cfg.AdminEmail != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			logger.Error(ctx, "admin seed failed", "err", err)
			os.Exit(1)
		}
	}

	// --- Gin Router ---
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
	}))

	handlers.NewHandler(authSvc, measurementSvc, logger, cfg.MaxBodyBytes()).Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", "err", err)
	}
	logger.Info(shutdownCtx, "server exited")
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
