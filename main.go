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

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/auth"
	"github.com/princinho/drivequiz/config"
	"github.com/princinho/drivequiz/controllers"
	"github.com/princinho/drivequiz/database"
	"github.com/princinho/drivequiz/gate"
	"github.com/princinho/drivequiz/logging"
	"github.com/princinho/drivequiz/progress"
	"github.com/princinho/drivequiz/storage"
	"github.com/princinho/drivequiz/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logging.SetDefault(logger)
	if logging.ParseLevel(cfg.LogLevel) > logging.ParseLevel("DEBUG") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn(ctx, "mongo disconnect", "error", err)
		}
	}()
	logger.Info(ctx, "connected to mongo", "database", cfg.DatabaseName)

	store := database.NewMongoStore(client.Database(cfg.DatabaseName))
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("ensure indexes: %v", err)
	}

	hasher := auth.NewPasswordHasher()
	seedAdmin(ctx, cfg, store, hasher, logger)

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("init object storage: %v", err)
	}
	defer objects.Close()

	engine := progress.NewEngine(store, logger, progress.Options{
		MaxAttempts: cfg.StatsMaxAttempts,
		Backoff:     cfg.StatsRetryBackoff,
	})

	router := controllers.NewRouter(controllers.Deps{
		Store:          store,
		Engine:         engine,
		Hasher:         hasher,
		Sessions:       auth.NewSessionVerifier(cfg.SessionSecret, cfg.SessionTTL),
		Bearer:         auth.NewBearerVerifier(cfg.JWTSecret, cfg.BearerTTL),
		Gate:           gate.New(cfg.LoginPath, cfg.AdminZoneRoot, cfg.GatePatterns),
		Objects:        objects,
		Validator:      utils.NewFileValidator(cfg.Upload),
		Log:            logger,
		AllowedOrigins: cfg.AllowedOrigins,
		CookieSecure:   cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "drivequiz backend listening", "addr", cfg.HTTPAddress(), "storage", cfg.Storage.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error(ctx, "graceful shutdown error", "error", err)
	}
}

// seedAdmin creates the console account from ADMIN_EMAIL/ADMIN_PASSWORD on
// first start. An existing account is never overwritten.
func seedAdmin(ctx context.Context, cfg config.Config, store *database.MongoStore, hasher *auth.PasswordHasher, logger logging.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Warn(ctx, "ADMIN_EMAIL or ADMIN_PASSWORD not set; skipping admin seeding")
		return
	}
	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	created, err := store.SeedAdmin(ctx, cfg.AdminEmail, hash)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if created {
		logger.Info(ctx, "admin user seeded", "email", cfg.AdminEmail)
	} else {
		logger.Info(ctx, "admin user already exists", "email", cfg.AdminEmail)
	}
}
