package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/harvestlane/marketplace/config"
	"github.com/harvestlane/marketplace/controllers"
	"github.com/harvestlane/marketplace/database"
	"github.com/harvestlane/marketplace/kafka"
	"github.com/harvestlane/marketplace/logger"
	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"
	"github.com/harvestlane/marketplace/routes"
	"github.com/harvestlane/marketplace/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	zlog := logger.Initialize(cfg.Env)
	defer zlog.Sync()

	db, err := database.Connect(cfg.PostgresDSN())
	if err != nil {
		zlog.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zlog.Warn("Failed to close connection pool", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.VendorPaymentAccount{},
	); err != nil {
		zlog.Fatal("Failed to migrate models", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	cartRepo := repository.NewGormCartRepo(db)
	productRepo := repository.NewGormProductRepo(db)
	orderRepo := repository.NewGormOrderRepo(db)
	vendorRepo := repository.NewGormVendorAccountRepo(db)
	sessionStore := repository.NewSessionStore(redisClient, time.Hour)
	reconcileGuard := repository.NewReconcileGuard(redisClient, 24*time.Hour)

	stripeSvc := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookKey)

	var publisher services.EventPublisher
	if cfg.KafkaBrokers != "" {
		producer := kafka.NewOrderEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.OrderEventsTopic, zlog)
		defer producer.Close()
		publisher = producer
	}

	cartSvc := services.NewCartService(cartRepo)
	checkoutSvc := services.NewCheckoutService(cartSvc, vendorRepo, stripeSvc, cfg.PlatformFeeRate, cfg.Currency, zlog)
	sessionSvc := services.NewSessionService(checkoutSvc, sessionStore, zlog)
	settlementSvc := services.NewSettlementService(orderRepo, productRepo, cartRepo, stripeSvc,
		cfg.PlatformStripeAccountID, cfg.PlatformFeeRate, cfg.Currency, publisher, zlog)
	connectSvc := services.NewConnectService(vendorRepo, stripeSvc, reconcileGuard, cfg.BaseURL, zlog)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	routes.Register(r, cfg.JWTSecret,
		&controllers.CartController{Cart: cartSvc, Carts: cartRepo, Products: productRepo, Logger: zlog},
		&controllers.CheckoutController{Checkout: checkoutSvc, Sessions: sessionSvc, Logger: zlog},
		&controllers.WebhookController{Stripe: stripeSvc, Settlement: settlementSvc, Logger: zlog},
		&controllers.ConnectController{Connect: connectSvc, Logger: zlog},
		&controllers.OrderController{Orders: orderRepo, Logger: zlog},
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Info("Marketplace service running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("Shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Shutdown error", zap.Error(err))
	}
	zlog.Info("Server shutdown complete")
}
