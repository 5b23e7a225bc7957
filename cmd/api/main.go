package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/example/marketplace/internal/api"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/command"
	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/domain/ad"
	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/inventory"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/infrastructure/kafka"
	"github.com/example/marketplace/internal/infrastructure/redis"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/payment"
	"github.com/example/marketplace/internal/projection"
	"github.com/example/marketplace/internal/query"
	"github.com/example/marketplace/internal/readmodel"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Configuration error: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("[API] %v", err)
	}
	if cfg.ChapaSecretKey == "" {
		log.Fatal("[API] CHAPA_SECRET_KEY environment variable is required")
	}

	log.Println("[API] ========================================")
	log.Println("[API] Marketplace API - CQRS Mode")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Topic: %s", cfg.KafkaTopic)
	log.Printf("[API] Event store: %s", cfg.EventStoreBackend)

	// Initialize Kafka producer
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// Initialize stores
	eventStore, readStore, cleanup := buildStores(ctx, cfg, producer)
	defer cleanup()

	// Redis-backed stock guard for checkout races and txRef idempotency
	redisClient := redis.NewClient(cfg.RedisAddr)
	defer redisClient.Close()
	stockGuard := redis.NewStockGuard(redisClient)

	// Chapa payment gateway
	chapaClient := payment.NewClient(cfg.ChapaSecretKey)

	// Initialize domain services
	productSvc := product.NewService(eventStore)
	cartSvc := cart.NewService(eventStore)
	orderSvc := order.NewService(eventStore)
	inventorySvc := inventory.NewService(eventStore)
	userSvc := user.NewService(eventStore)
	auctionSvc := auction.NewService(eventStore)
	adSvc := ad.NewService(eventStore)
	categorySvc := category.NewService(eventStore)

	// Initialize JWT service
	jwtService := auth.NewJWTService(
		cfg.JWTSecret,
		15*time.Minute, // Access token expiry
		7*24*time.Hour, // Refresh token expiry (7 days)
	)

	// Initialize handlers
	cmdHandler := command.NewHandler(
		productSvc, cartSvc, orderSvc, inventorySvc,
		userSvc, auctionSvc, adSvc, categorySvc,
		readStore, stockGuard, chapaClient,
	)
	queryHandler := query.NewHandler(readStore)

	// Initialize projector
	projector := projection.NewProjector(readStore)

	// Replay existing events to rebuild read models
	log.Println("[API] Replaying events...")
	replayEvents(eventStore, projector)

	// Start Kafka consumer for new events (async projection)
	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "api-projector")
	defer consumer.Close()

	var wg sync.WaitGroup
	consumerReady := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("[API] Starting Kafka consumer (async projection)...")
		close(consumerReady)
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil {
			if ctx.Err() == nil {
				log.Printf("[API] Projector error: %v", err)
			}
		}
	}()

	<-consumerReady
	// Give Kafka consumer a moment to establish connection
	time.Sleep(500 * time.Millisecond)
	log.Println("[API] Kafka consumer ready")

	// Initialize API
	handlers := api.NewHandlers(cmdHandler, queryHandler)
	authHandlers := api.NewAuthHandlers(userSvc, jwtService, queryHandler, readStore)
	router := api.NewRouter(handlers, authHandlers, jwtService, cfg.WebDir)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.ListenAddr)
		log.Println("[API] Note: Using ASYNC projection; read model updates may lag slightly")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wg.Wait()
}

// buildStores wires the configured event store backend and a matching read
// store. The returned cleanup closes whatever connections were opened.
func buildStores(ctx context.Context, cfg *config.Config, producer *kafka.Producer) (store.EventStoreInterface, store.ReadStoreInterface, func()) {
	switch cfg.EventStoreBackend {
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[API] Failed to load AWS config: %v", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		eventStore := store.NewDynamoEventStore(client, cfg.DynamoEventsTable, cfg.DynamoSnapshotsTable, producer)
		log.Println("[API] Write DB: DynamoDB, Read DB: in-memory (rebuilt on start)")
		return eventStore, store.NewReadStore(), func() {}

	case "memory":
		log.Println("[API] Write DB: in-memory (development only)")
		return store.NewMemoryEventStore(producer), store.NewReadStore(), func() {}

	default: // postgres
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
		}
		log.Println("[API] Write DB: PostgreSQL (events table), Read DB: PostgreSQL (read_* tables)")
		eventStore := store.NewPostgresEventStore(db, producer)
		readStore := store.NewPostgresReadStore(db, readmodel.Factories())
		return eventStore, readStore, func() { db.Close() }
	}
}

// replayEvents replays all stored events to rebuild read models
func replayEvents(eventStore store.EventStoreInterface, projector *projection.Projector) {
	events := eventStore.GetAllEvents()
	log.Printf("[API] Replaying %d events from event store...", len(events))

	ctx := context.Background()
	for _, event := range events {
		data, _ := event.MarshalJSON()
		if err := projector.HandleEvent(ctx, []byte(event.AggregateID), data); err != nil {
			log.Printf("[API] Error replaying event %s: %v", event.ID, err)
		}
	}
	log.Println("[API] Event replay completed - read models rebuilt")
}
