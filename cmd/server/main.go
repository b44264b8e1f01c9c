package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"vending/internal/auth"
	"vending/internal/cache"
	"vending/internal/config"
	"vending/internal/db"
	"vending/internal/handler"
	"vending/internal/logger"
	"vending/internal/repository"
	"vending/internal/router"
	"vending/internal/service"
)

// @title Vending Machine API
// @version 1.0
// @description Vending machine backend: buyers deposit coins and buy products, sellers manage inventory.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.JWTSecret == config.DefaultJWTSecret {
		logrus.Warn("JWT_SECRET is not set, using the development default")
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database init")
	}

	if cfg.ResetDB {
		logrus.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logrus.WithError(err).Warn("drop tables")
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		logrus.WithError(err).Fatal("migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logrus.WithError(err).Warn("redis unavailable, running without cache")
	}
	cancelPing()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	transactor := repository.NewTransactor(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	sessions := auth.NewSessionStore(sessionRepo)
	guard := auth.NewGuard(jwtService, sessions)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, sessions)
	userService := service.NewUserService(userRepo, sessions, cacheClient)
	walletService := service.NewWalletService(userRepo, cacheClient)
	productService := service.NewProductService(productRepo, cacheClient)
	purchaseService := service.NewPurchaseService(transactor, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, walletService)
	productHandler := handler.NewProductHandler(productService, purchaseService)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, guard, authHandler, userHandler, productHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.ServerPort
	go func() {
		logrus.WithField("addr", addr).Info("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server start")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
