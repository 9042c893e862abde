package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apparel-order-service/config"
	"apparel-order-service/internal/api"
	"apparel-order-service/internal/broker"
	"apparel-order-service/internal/catalog"
	"apparel-order-service/internal/redisclient"
	"apparel-order-service/internal/service"
	"apparel-order-service/internal/stock"
	"apparel-order-service/internal/store"
	"apparel-order-service/internal/util"
	"apparel-order-service/internal/vendor"
	"apparel-order-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting apparel order service")

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	tp, err := util.InitTracer("apparel-order-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load style catalog: %v", err)
	}
	log.Printf("Catalog loaded: %d styles", len(cat.Styles()))

	vendorClient := vendor.NewClient(cfg.Vendor.BaseURL, cfg.Vendor.Username, cfg.Vendor.Password)
	fetcher := stock.NewFetcher(vendorClient, cfg.Vendor.WarehouseCode)
	stockCache := stock.NewCache(fetcher, cfg.Vendor.StockCacheTTL, time.Now)

	skuEntries, err := db.GetSKUMap(context.Background())
	if err != nil {
		logger.Warn("Failed to load SKU map, lines will fall back to composite keys", zap.Error(err))
	}
	aggregator := service.NewAggregator(service.NewSKUTable(skuEntries))

	orderService := service.NewOrderService(db, redisClient, eventPublisher)
	orchestrator := service.NewSubmissionOrchestrator(
		db, vendorClient, redisClient, aggregator, eventPublisher, cfg.Vendor.PONumberPrefix)
	historyService := service.NewHistoryService(db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	auditConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	auditWorker := worker.NewAuditWorker(auditConsumer, db)
	go func() {
		if err := auditWorker.Start(workerCtx); err != nil {
			log.Printf("Audit worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, orchestrator, historyService, cat, stockCache, cfg.Admin.Password)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	auditWorker.Stop()

	log.Println("Server exited")
}
