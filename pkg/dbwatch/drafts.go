package dbwatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/drafts"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/metrics"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/redis_client"
)

type DraftsWatch struct {
	EventQueue rmq.Queue
}

func NewDraftsWatch() *DraftsWatch {
	eventQueue, err := redis_client.QueueConnection.OpenQueue("schedule-events")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start event queue")
	}

	return &DraftsWatch{
		EventQueue: eventQueue,
	}
}

type draftChange struct {
	OperationType            string                `bson:"operationType"`
	FullDocument             *drafts.ScheduleDraft `bson:"fullDocument"`
	FullDocumentBeforeChange *drafts.ScheduleDraft `bson:"fullDocumentBeforeChange"`
}

func (w *DraftsWatch) Run() {
	log.Info().Msg("Starting dbwatch on collection schedule_drafts")
	collection := database.GetCollection(drafts.CollectionName)

	matchPipeline := bson.D{
		{
			Key: "$match", Value: bson.D{
				{
					Key: "operationType", Value: bson.D{
						{Key: "$in", Value: bson.A{"insert", "update", "replace", "delete"}},
					},
				},
			},
		},
	}

	// Deletes only carry the before image, which needs pre/post images
	// enabled on the collection.
	opts := options.ChangeStream().
		SetFullDocument(options.UpdateLookup).
		SetFullDocumentBeforeChange(options.WhenAvailable)

	stream, err := collection.Watch(context.Background(), mongo.Pipeline{matchPipeline}, opts)
	if err != nil {
		panic(err)
	}

	defer stream.Close(context.Background())

	for stream.Next(context.Background()) {
		var change draftChange
		if err := stream.Decode(&change); err != nil {
			log.Error().Err(err).Msg("Failed to decode event")
			continue
		}

		event := drafts.ChangeEvent{
			Timestamp: time.Now(),
		}

		switch change.OperationType {
		case "insert":
			event.Type = drafts.ChangeEventTypeDraftCreated
		case "update", "replace":
			event.Type = drafts.ChangeEventTypeDraftUpdated
		case "delete":
			event.Type = drafts.ChangeEventTypeDraftDeleted
		default:
			continue
		}

		document := change.FullDocument
		if document == nil {
			document = change.FullDocumentBeforeChange
		}
		if document != nil {
			event.Identifier = document.PrimaryIdentifier
			event.FileName = document.FileName
		}

		log.Info().
			Str("type", string(event.Type)).
			Str("id", event.Identifier).
			Msg("Draft changed")

		eventBytes, _ := json.Marshal(event)
		w.EventQueue.PublishBytes(eventBytes)

		metrics.Instance.DraftEvents.WithLabelValues(string(event.Type)).Inc()
	}
}
