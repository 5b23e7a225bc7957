// Lambda variant of the projector: consumes event-store changes from the
// DynamoDB Streams -> Kinesis pipeline instead of Kafka.
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/infrastructure/kinesis"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/projection"
	"github.com/example/marketplace/internal/readmodel"
)

var projector *projection.Projector

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Lambda Projector] Configuration error: %v", err)
	}

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Lambda Projector] Failed to connect to PostgreSQL: %v", err)
	}

	readStore := store.NewPostgresReadStore(db, readmodel.Factories())
	projector = projection.NewProjector(readStore)

	log.Println("[Lambda Projector] Initialized successfully")
}

func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Projector] Received %d records", len(kinesisEvent.Records))

	var batchItemFailures []events.KinesisBatchItemFailure

	for _, record := range kinesisEvent.Records {
		event, err := kinesis.ConvertFromKinesisRecord(record)
		if err != nil {
			log.Printf("[Lambda Projector] Failed to convert record %s: %v", record.EventID, err)
			batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}

		// Non-INSERT stream changes carry no new domain event.
		if event == nil {
			continue
		}

		eventJSON, err := json.Marshal(event)
		if err != nil {
			log.Printf("[Lambda Projector] Failed to marshal event %s: %v", event.ID, err)
			batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}

		if err := projector.HandleEvent(ctx, []byte(event.AggregateID), eventJSON); err != nil {
			log.Printf("[Lambda Projector] Failed to process event %s: %v", event.ID, err)
			batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}
	}

	successCount := len(kinesisEvent.Records) - len(batchItemFailures)
	log.Printf("[Lambda Projector] Processed %d/%d records successfully", successCount, len(kinesisEvent.Records))

	return events.KinesisEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

func main() {
	lambda.Start(handler)
}
