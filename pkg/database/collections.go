package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createDraftIndexes()
	createDraftTravelTimeIndexes()
}

func createDraftIndexes() {
	draftsCollection := GetCollection("schedule_drafts")
	draftsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "primaryidentifier", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "filename", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "creationdatetime", Value: -1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := draftsCollection.Indexes().CreateMany(context.Background(), draftsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createDraftTravelTimeIndexes() {
	travelTimesCollection := GetCollection("draft_travel_times")
	travelTimesIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "draftidentifier", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "fromtimepoint", Value: 1},
				{Key: "totimepoint", Value: 1},
				{Key: "daytype", Value: 1},
			},
		},
	}

	opts := options.CreateIndexes()
	_, err := travelTimesCollection.Indexes().CreateMany(context.Background(), travelTimesIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
