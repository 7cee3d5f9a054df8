package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/adapter/postgres"
	"github.com/YelzhanWeb/cafestock/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/cafestock/internal/app/catalog"
	"github.com/YelzhanWeb/cafestock/internal/app/counting"
	"github.com/YelzhanWeb/cafestock/internal/app/fulfillment"
	"github.com/YelzhanWeb/cafestock/internal/config"

	amqpAdapter "github.com/YelzhanWeb/cafestock/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/cafestock/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: api, notification-subscriber")
	port := flag.Int("port", 3000, "HTTP port")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Initialize logger
	lgr := logger.New(*mode)

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "api":
		// Connect to PostgreSQL
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()

		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		runAPI(db, mqConn, lgr, *port)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr, *prefetch)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runAPI(db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, port int) {
	// Initialize repositories
	catalogRepo := postgres.NewCatalogRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// Initialize messaging
	publisher := rabbitmq.NewPublisher(mqConn)

	// Initialize services
	catalogService := catalog.NewService(catalogRepo, lgr)
	countingService := counting.NewService(catalogRepo, orderRepo, publisher, lgr)
	fulfillmentService := fulfillment.NewService(orderRepo, publisher, lgr)

	// Initialize HTTP handlers
	catalogHandler := httpAdapter.NewCatalogHandler(catalogService, lgr)
	countHandler := httpAdapter.NewCountHandler(countingService, lgr)
	orderHandler := httpAdapter.NewOrderHandler(fulfillmentService, lgr)

	// Setup HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("/items", catalogHandler.HandleItems)
	mux.HandleFunc("/items/", catalogHandler.HandleItem)
	mux.HandleFunc("/collections/", catalogHandler.HandleCollections)
	mux.HandleFunc("/categories", catalogHandler.HandleCategories)
	mux.HandleFunc("/suppliers", catalogHandler.HandleSuppliers)
	mux.HandleFunc("/locations", catalogHandler.HandleLocations)
	mux.HandleFunc("/sessions", countHandler.HandleSessions)
	mux.HandleFunc("/sessions/", countHandler.HandleSession)
	mux.HandleFunc("/orders", orderHandler.HandleOrders)
	mux.HandleFunc("/orders/", orderHandler.HandleOrder)

	// Apply middleware
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("API started on port %d", port), "startup", map[string]interface{}{
		"port": port,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger, prefetch int) {
	consumer := rabbitmq.NewConsumer(mqConn, prefetch)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeStatusUpdates(ctx, notificationHandler.HandleStatusUpdate); err != nil {
			lgr.Error("consumer_error", "Error consuming status updates", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
