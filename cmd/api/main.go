package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/auth"
	"carbonchain/marketplace-backend/internal/catalog"
	"carbonchain/marketplace-backend/internal/config"
	"carbonchain/marketplace-backend/internal/credentials"
	"carbonchain/marketplace-backend/internal/market"
	"carbonchain/marketplace-backend/internal/notifications"
	"carbonchain/marketplace-backend/internal/portfolio"
)

func main() {
	// .env is optional; environment wins over config.json either way
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Logging)
	defer logger.Sync()

	// Static catalog. A missing or malformed data file is fatal: the rest
	// of the API is meaningless without it.
	store := catalog.NewStore(logger)
	if err := store.Load(cfg.Data.ProjectsPath, cfg.Data.CreditsPath); err != nil {
		logger.Fatal("Failed to load carbon catalog", zap.Error(err))
	}

	keys, err := auth.LoadKeyPair(cfg.Keys.PrivateKeyPath, cfg.Keys.PublicKeyPath)
	if err != nil {
		logger.Fatal("Failed to load signing keys (run cmd/keygen first)", zap.Error(err))
	}

	hub := notifications.NewHub(logger)
	defer hub.Close()

	ledger := market.NewLedger(market.Options{
		FeeRate:            cfg.Market.FeeRate,
		AllowForeignCancel: cfg.Market.AllowForeignCancel,
	}, hub, logger)

	portfolioService := portfolio.NewService(store, logger)

	// The credential gateway is optional: without a partner ID every
	// purchase still succeeds, it just carries no credential.
	var airClient *credentials.Client
	var issuer portfolio.CredentialIssuer
	if cfg.Air.Enabled && cfg.Air.PartnerID != "" {
		airClient = credentials.NewClient(cfg.Air, cfg.Keys.KeyID, keys.Private, logger)
		issuer = airClient
		logger.Info("AIR credential gateway enabled", zap.String("url", cfg.Air.APIURL))
	} else {
		logger.Info("AIR credential gateway disabled")
	}

	catalogHandler := catalog.NewHandler(store, logger)
	marketHandler := market.NewHandler(ledger, hub, logger)
	portfolioHandler := portfolio.NewHandler(portfolioService, store, issuer, logger)
	credentialsHandler := credentials.NewHandler(store, airClient, cfg.Air, logger)
	authHandler := auth.NewHandler(keys, cfg.Keys, cfg.Air.IssuerDID, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		catalogHandler.RegisterRoutes(api)
		marketHandler.RegisterRoutes(api)
		portfolioHandler.RegisterRoutes(api)
		credentialsHandler.RegisterRoutes(api)
	}
	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	aggregator := market.NewAggregator(ledger, hub, logger)
	if err := aggregator.Start(cfg.Market.SnapshotSchedule); err != nil {
		logger.Fatal("Failed to start market aggregator", zap.Error(err))
	}
	defer aggregator.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newLogger(cfg config.LoggingConfig) *zap.Logger {
	if cfg.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	zcfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		zcfg.Level = level
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
