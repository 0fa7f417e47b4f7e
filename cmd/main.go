package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/events"
	"github.com/sebestral-solio/elip-pos-sub000/internal/handler"
	"github.com/sebestral-solio/elip-pos-sub000/internal/provider"
	"github.com/sebestral-solio/elip-pos-sub000/internal/repository"
	"github.com/sebestral-solio/elip-pos-sub000/internal/service"
	"github.com/sebestral-solio/elip-pos-sub000/pkg/config"
	"github.com/sebestral-solio/elip-pos-sub000/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("provider_base_url", cfg.ProviderBaseURL),
		zap.String("currency", cfg.Currency),
		zap.Duration("poll_stuck_threshold", cfg.PollStuckThreshold),
		zap.Bool("kafka_enabled", cfg.KafkaBrokers != ""),
		zap.Bool("redis_enabled", cfg.RedisAddr != ""))

	// Initialize components
	dynamoClient, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	orderRepo := repository.NewOrderRepository(dynamoClient, cfg.OrderTableName)
	productRepo := repository.NewProductRepository(dynamoClient, cfg.ProductTableName)
	paymentRepo := repository.NewPaymentRepository(dynamoClient, cfg.PaymentTableName)
	configRepo := repository.NewConfigRepository(dynamoClient, cfg.ConfigTableName)

	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderSecretKey)

	var publisher service.EventPublisher
	if cfg.KafkaBrokers != "" {
		producer, err := events.NewProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			log.Fatal("Failed to create Kafka producer:", err)
		}
		defer producer.Close()
		publisher = producer
	}

	var tracker service.StateTracker
	if cfg.RedisAddr != "" {
		redisTracker := service.NewRedisTracker(cfg.RedisAddr)
		defer redisTracker.Close()
		tracker = redisTracker
	} else {
		tracker = service.NewMemoryTracker()
	}

	inventory := service.NewInventory(productRepo, logger)
	orchestrator := service.NewOrchestrator(
		orderRepo, paymentRepo, productRepo, configRepo,
		providerClient, inventory, publisher, tracker,
		service.OrchestratorConfig{
			Currency:           cfg.Currency,
			CaptureMethod:      cfg.CaptureMethod,
			WebhookSecret:      cfg.WebhookSecret,
			StuckThreshold:     cfg.PollStuckThreshold,
			CheckoutSuccessURL: cfg.CheckoutSuccessURL,
			CheckoutCancelURL:  cfg.CheckoutCancelURL,
		},
		logger,
	)
	orderService := service.NewOrderService(orderRepo, productRepo, inventory, publisher, logger)
	configService := service.NewConfigService(configRepo, logger)

	paymentHandler := handler.NewPaymentHandler(orchestrator, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	configHandler := handler.NewConfigHandler(configService, logger)

	// Setup Gin Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	v1 := router.Group("/api/v1")
	{
		// The webhook is unauthenticated; it is protected by the body
		// signature instead.
		v1.POST("/payment/webhook", paymentHandler.Webhook)

		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "healthy",
				"service": "pos-payment-service",
				"port":    cfg.Port,
			})
		})

		authed := v1.Group("")
		authed.Use(middleware.Auth(cfg.JWTSecret))
		{
			authed.POST("/payment/create-payment-intent", paymentHandler.CreatePaymentIntent)
			authed.POST("/payment/create-checkout-session", paymentHandler.CreateCheckoutSession)
			authed.POST("/payment/verify-checkout-session", paymentHandler.VerifyCheckoutSession)
			authed.POST("/payment/confirm/:transactionId", paymentHandler.ConfirmPayment)
			authed.POST("/payment/capture/:transactionId", paymentHandler.CapturePaymentIntent)
			authed.GET("/payment/status/:transactionId", paymentHandler.CheckPaymentStatus)
			authed.POST("/payment/check-failure/:transactionId", paymentHandler.CheckFailureAndCleanup)

			authed.POST("/orders", orderHandler.CreateCashOrder)
			authed.GET("/orders/:id", orderHandler.GetOrder)

			authed.GET("/config", configHandler.GetConfiguration)
			authed.PUT("/config/tax-rate", configHandler.UpdateTaxRate)
			authed.POST("/config/terminals", configHandler.RegisterTerminal)
			authed.PUT("/config/terminals/assign", configHandler.AssignTerminal)
			authed.DELETE("/config/terminals/:terminalId", configHandler.RemoveTerminal)
		}
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
