// The auctioneer sweeps auction windows: it activates approved auctions whose
// start time has passed and closes active auctions whose end time has passed.
// It keeps its own in-memory read models, rebuilt from the event store on
// start and kept current from Kafka, so a sweep never races the projector's
// database writes.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/infrastructure/kafka"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/projection"
	"github.com/example/marketplace/internal/query"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Auctioneer] Configuration error: %v", err)
	}
	sweepInterval := sweepIntervalFromEnv()

	log.Println("[Auctioneer] ========================================")
	log.Println("[Auctioneer] Marketplace - Auction Sweep")
	log.Println("[Auctioneer] ========================================")
	log.Printf("[Auctioneer] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Auctioneer] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Auctioneer] Sweep interval: %s", sweepInterval)

	// Initialize PostgreSQL connection (event store)
	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Auctioneer] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	eventStore := store.NewPostgresEventStore(db, producer)
	auctionSvc := auction.NewService(eventStore)

	// Private read models: replay history, then follow the topic.
	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore)
	queryHandler := query.NewHandler(readStore)

	log.Println("[Auctioneer] Replaying events...")
	for _, event := range eventStore.GetAllEvents() {
		data, _ := event.MarshalJSON()
		if err := projector.HandleEvent(ctx, []byte(event.AggregateID), data); err != nil {
			log.Printf("[Auctioneer] Error replaying event %s: %v", event.ID, err)
		}
	}

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "auctioneer")
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil {
			if ctx.Err() == nil {
				log.Printf("[Auctioneer] Consumer error: %v", err)
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep(ctx, queryHandler, auctionSvc)
			}
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Auctioneer] Shutting down...")
	cancel()
	wg.Wait()
}

// sweep walks pending and active auctions once. Transition failures are
// logged and retried on the next tick; a concurrent transition elsewhere
// just makes this sweep's attempt a no-op error.
func sweep(ctx context.Context, queryHandler *query.Handler, auctionSvc *auction.Service) {
	now := time.Now()

	for _, a := range queryHandler.ListAuctions(string(auction.StatusPending)) {
		if a.Approval != string(auction.ApprovalApproved) || now.Before(a.StartTime) {
			continue
		}
		if _, err := auctionSvc.Activate(ctx, a.ID); err != nil {
			log.Printf("[Auctioneer] Failed to activate auction %s: %v", a.ID, err)
			continue
		}
		log.Printf("[Auctioneer] Activated auction %s", a.ID)
	}

	for _, a := range queryHandler.ListAuctions(string(auction.StatusActive)) {
		if now.Before(a.EndTime) {
			continue
		}
		closed, err := auctionSvc.Close(ctx, a.ID)
		if err != nil {
			log.Printf("[Auctioneer] Failed to close auction %s: %v", a.ID, err)
			continue
		}
		if closed.WinnerID != "" {
			log.Printf("[Auctioneer] Closed auction %s, winner %s at %d", a.ID, closed.WinnerID, closed.WinningBid)
		} else {
			log.Printf("[Auctioneer] Closed auction %s without a winner", a.ID)
		}
	}
}

func sweepIntervalFromEnv() time.Duration {
	if v := os.Getenv("SWEEP_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 30 * time.Second
}
