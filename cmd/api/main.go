package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/cache"
	"github.com/Dan9191/mortgage-simulator/internal/config"
	"github.com/Dan9191/mortgage-simulator/internal/handler"
	"github.com/Dan9191/mortgage-simulator/internal/integrations/ecb"
	"github.com/Dan9191/mortgage-simulator/internal/middleware"
	"github.com/Dan9191/mortgage-simulator/internal/repository"
	"github.com/Dan9191/mortgage-simulator/internal/service"
	"github.com/Dan9191/mortgage-simulator/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize storage
	var store service.Store
	if cfg.DBConn == "" {
		logger.Warn("DB_CONN is empty, using in-memory storage")
		store = repository.NewMemoryRepository()
	} else {
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		store = repository.NewRepository(db)
	}

	var c cache.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warnf("Redis unavailable at %s, using in-memory cache: %v", cfg.RedisAddr, err)
			rc.Close()
		} else {
			defer rc.Close()
			c = rc
		}
	}

	// Initialize layers
	svc := service.NewService(store, c, email.NewSender(cfg, logger), ecb.NewClient(cfg, logger), logger, cfg)
	if err := svc.RefreshRates(context.Background()); err != nil {
		logger.Errorf("Initial rate load failed: %v", err)
	}

	scheduler := service.NewScheduler(svc, logger, cfg.RateRefreshSpec)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to schedule rate refresh: %v", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	h := handler.NewHandler(svc, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(cfg, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Errorf("Server failed: %v", err)
	case <-quit:
		logger.Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	<-scheduler.Stop().Done()

	logger.Info("Server exited")
}
